package main

import (
	"flag"
	"log"

	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/cli/top"
	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
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

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	ctx := fx.NewRunner().HandleSignals().Context
	if err := top.Run(ctx, q, "fleetlink "+mqttURL); err != nil {
		log.Fatalln(err)
	}
}
