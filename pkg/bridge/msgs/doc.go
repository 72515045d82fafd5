// Package msgs provides the messages the telemetry bridge exchanges over
// MQTT, each wrapped in a Typed envelope.
package msgs

// Producer: link nodes (LinkStats, State)
// Consumer: operator tools, which may send Setpoint back to the coordinator
