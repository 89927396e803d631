package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"baby-timeline-relay/internal/history"
	"baby-timeline-relay/internal/settings"

	"github.com/go-chi/chi/v5"
)

// repository is the slice of the history store the API reads.
type repository interface {
	LoadBetween(ctx context.Context, start, end int64) ([]history.Delivery, error)
}

// resetter clears the event log mirror.
type resetter interface {
	Reset(ctx context.Context) error
}

type API struct {
	settings *settings.Store
	mirror   resetter
	history  repository
}

type Config struct {
	Settings *settings.Store
	Mirror   resetter
	History  repository
}

func New(cfg Config) *API {
	return &API{
		settings: cfg.Settings,
		mirror:   cfg.Mirror,
		history:  cfg.History,
	}
}

func (a *API) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", a.Health)
	r.Get("/settings", a.GetSettings)
	r.Post("/settings", a.PostSettings)
	r.Get("/history", a.GetHistory)
	return r
}

func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// GetSettings returns the current 8-field config blob for the
// settings page to prefill.
func (a *API) GetSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(a.settings.Current())
}

// PostSettings receives the settings page handoff: either the
// url-encoded 8-field JSON blob, or the literal "reset" which erases
// the event log instead of updating the config.
func (a *API) PostSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	response := string(raw)

	if response == settings.ResetHandoff {
		if err := a.mirror.Reset(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	cfg, err := settings.ParseHandoff(response)
	if err != nil {
		http.Error(w, "invalid settings payload", http.StatusBadRequest)
		return
	}
	for _, icon := range []string{cfg.Event1Icon, cfg.Event2Icon, cfg.Event3Icon, cfg.Event4Icon} {
		if icon != "" && !settings.KnownIcon(icon) {
			slog.InfoContext(r.Context(), "Unknown icon ref in settings", "icon", icon)
		}
	}
	if err := a.settings.Save(r.Context(), cfg); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) GetHistory(w http.ResponseWriter, r *http.Request) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	startTime, err := time.Parse(time.RFC3339, startStr)
	if err != nil {
		http.Error(w, "invalid start timestamp", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, endStr)
	if err != nil {
		http.Error(w, "invalid end timestamp", http.StatusBadRequest)
		return
	}

	deliveries, err := a.history.LoadBetween(r.Context(), startTime.Unix(), endTime.Unix())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	var resp GetHistoryResponse
	for _, d := range deliveries {
		resp.Deliveries = append(resp.Deliveries, Delivery{
			PinID:     d.PinID,
			EventCode: d.EventCode,
			EventTime: time.Unix(d.EventTime, 0).UTC().Format(time.RFC3339),
			Verb:      d.Verb,
			Response:  d.Response,
			RelayedAt: time.Unix(d.RelayedAt, 0).UTC().Format(time.RFC3339),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
