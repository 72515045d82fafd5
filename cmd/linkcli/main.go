package main

import (
	"github.com/robotalks/fleetlink/pkg/cli/sh"

	_ "github.com/robotalks/fleetlink/pkg/cli/cmds/link"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
