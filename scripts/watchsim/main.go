package main

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publishes a handful of simulated watch appmessages to the broker so
// the relay can be exercised end to end without hardware.
func main() {
	broker := "tcp://localhost:1883"
	topic := "babywatch/appmessage"

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("watchsim")
	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		panic(token.Error())
	}
	defer client.Disconnect(250)

	now := time.Now().Unix()
	payloads := []map[string]any{
		// Symbolic keys, current firmware.
		{"EVENT_TYPE": 1, "EVENT_TIME": now},
		{"EVENT_TYPE": 3, "EVENT_TIME": now + 5},
		// Numeric key indices, older runtime.
		{"0": 2, "1": now + 10},
		// Missing timestamp - the relay should drop this one.
		{"EVENT_TYPE": 4},
	}

	for _, payload := range payloads {
		out, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		if token := client.Publish(topic, 1, false, out); token.Wait() && token.Error() != nil {
			panic(token.Error())
		}
		fmt.Println("Published:", string(out))
		time.Sleep(200 * time.Millisecond)
	}
}
