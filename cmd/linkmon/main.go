package main

import (
	"flag"
	"log"

	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/env"
)

var (
	mqttURL = mqtt.DefaultBrokerURL
)

func init() {
	if val := env.Default().MQTTBrokerURL; val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	q.Sub("#", mqtt.Handler(func(topic string, payload []byte) {
		log.Println(mqtt.FormatPayload(topic, payload))
	}))
	if err := q.ConnectWait(mqtt.DefaultConnectTimeout); err != nil {
		log.Fatalln(err)
	}
	<-(chan struct{})(nil)
}
