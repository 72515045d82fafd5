package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/joystick"
)

var (
	mqttURL = mqtt.DefaultBrokerURL
)

func init() {
	if val := env.Default().MQTTBrokerURL; val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
	joystick.SetupFlags()
}

func main() {
	flag.Parse()

	conf := joystick.Default()
	target := mqtt.NodeRef{Role: "coordinator", ID: conf.Target}
	if !target.IsValid() {
		log.Fatalln("-target required")
	}
	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.ConnectWait(mqtt.DefaultConnectTimeout); err != nil {
		log.Fatalln(err)
	}
	defer q.Close()

	ctl := conf.NewController(&joystick.QueuePublisher{Queue: q, Target: target})
	ctx := fx.NewRunner().HandleSignals().Context
	fx.NewLoop().Add(ctl).RunOrFail(ctx)
}
