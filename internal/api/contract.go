package api

type Delivery struct {
	PinID     string `json:"pinId"`
	EventCode int    `json:"eventCode"`
	EventTime string `json:"eventTime"`
	Verb      string `json:"verb"`
	Response  string `json:"response"`
	RelayedAt string `json:"relayedAt"`
}

type GetHistoryResponse struct {
	Deliveries []Delivery `json:"deliveries"`
}
