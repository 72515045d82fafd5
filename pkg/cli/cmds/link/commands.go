// Package link exposes setpoint and telemetry commands in the console.
package link

import (
	"fmt"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/fleetlink/pkg/actuator"
	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
	"github.com/robotalks/fleetlink/pkg/cli/sh"
)

// DefaultWatchDuration is how long watch prints without an argument.
const DefaultWatchDuration = 5 * time.Second

// ParseSetpoint parses "SERVO_X SERVO_Y [THROTTLE_1 THROTTLE_2]". Servo
// angles are in degrees and normalized into (-180, 180].
func ParseSetpoint(args []string) (*msgs.Setpoint, error) {
	if len(args) != 2 && len(args) != 4 {
		return nil, fmt.Errorf("SERVO_X SERVO_Y [THROTTLE_1 THROTTLE_2] required")
	}
	names := []string{"SERVO_X", "SERVO_Y", "THROTTLE_1", "THROTTLE_2"}
	var vals [4]float32
	for n, arg := range args {
		val, err := strconv.ParseFloat(arg, 32)
		if err != nil {
			return nil, fmt.Errorf("Invalid %s: %v", names[n], err)
		}
		if n < 2 {
			val = actuator.Deg(val).Degrees()
		}
		vals[n] = float32(val)
	}
	return msgs.NewSetpoint([2]float32{vals[0], vals[1]}, [2]float32{vals[2], vals[3]}), nil
}

var (
	// SetpointCmd streams new setpoints through the coordinator.
	SetpointCmd = ishell.Cmd{
		Name:    "setpoint",
		Aliases: []string{"sp"},
		Help:    "SERVO_X(degrees) SERVO_Y(degrees) [THROTTLE_1(%) THROTTLE_2(%)]",
		Func: sh.MustBeSelected(func(c *ishell.Context) {
			msg, err := ParseSetpoint(c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			sh.Publish(c, mqtt.TopicSetpoint, msg)
		}),
	}

	// NeutralCmd returns all outputs to neutral.
	NeutralCmd = ishell.Cmd{
		Name:    "neutral",
		Aliases: []string{"n"},
		Help:    "",
		Func: sh.MustBeSelected(func(c *ishell.Context) {
			sh.Publish(c, mqtt.TopicSetpoint, msgs.NewSetpoint([2]float32{}, [2]float32{}))
		}),
	}

	// WatchCmd prints link statistics and telemetry of all nodes.
	WatchCmd = ishell.Cmd{
		Name:    "watch",
		Aliases: []string{"w"},
		Help:    "[SECONDS]",
		Func: func(c *ishell.Context) {
			d := DefaultWatchDuration
			if len(c.Args) > 0 {
				secs, err := strconv.ParseFloat(c.Args[0], 64)
				if err != nil || secs <= 0 {
					c.Err(fmt.Errorf("Invalid SECONDS: %q", c.Args[0]))
					return
				}
				d = time.Duration(secs * float64(time.Second))
			}
			q, err := sh.ShellFrom(c).Queue()
			if err != nil {
				c.Err(err)
				return
			}
			show := mqtt.Handler(func(topic string, payload []byte) {
				c.Println(mqtt.FormatPayload(topic, payload))
			})
			stats := q.Sub(mqtt.AllNodes(mqtt.TopicStats), show)
			state := q.Sub(mqtt.AllNodes(mqtt.TopicState), show)
			time.Sleep(d)
			stats.Close()
			state.Close()
		},
	}
)

func init() {
	sh.AddCmds(
		&SetpointCmd,
		&NeutralCmd,
		&WatchCmd,
	)
}
