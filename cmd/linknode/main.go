package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/env"
	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/node"
)

func init() {
	env.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	ctx := fx.NewRunner().HandleSignals().Context
	n := node.MustNew(env.Default()).MustBoot(ctx)
	defer n.Close()
	glog.Infof("%s running", n.Name())

	n.NewLoop().RunOrFail(ctx)
}
