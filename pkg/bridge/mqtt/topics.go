// Package mqtt bridges link nodes to an MQTT broker: presence, link
// statistics, telemetry and setpoints.
package mqtt

import (
	"errors"
	"strings"
	"time"
)

// Defaults of operator tools.
const (
	DefaultBrokerURL      = "mqtt://localhost:1883/fleet/"
	DefaultConnectTimeout = 2 * time.Second
)

var (
	// ErrTimeout indicates the broker didn't respond in time.
	ErrTimeout = errors.New("MQTT timeout")
)

// Topic kinds under a node.
const (
	TopicMeta     = "meta"
	TopicStats    = "stats"
	TopicState    = "state"
	TopicSetpoint = "setpoint"

	topicRoot = "nodes"
)

// NodeRef is a reference to a node.
type NodeRef struct {
	// Role is coordinator or agent.
	Role string
	// ID is unique ID of the node.
	ID string
}

// Name retrieves the name from ref.
func (r NodeRef) Name() string {
	return r.Role + "/" + r.ID
}

// IsValid indicates NodeRef is valid.
func (r NodeRef) IsValid() bool {
	return r.Role != "" && r.ID != "" && !strings.ContainsAny(r.Role+r.ID, "/+#")
}

// Topic returns the topic of kind under the node.
func (r NodeRef) Topic(kind string) string {
	return topicRoot + "/" + r.Name() + "/" + kind
}

// ParseTopic extracts the node and kind from a topic.
func ParseTopic(topic string) (NodeRef, string, bool) {
	items := strings.Split(topic, "/")
	if len(items) != 4 || items[0] != topicRoot {
		return NodeRef{}, "", false
	}
	return NodeRef{Role: items[1], ID: items[2]}, items[3], true
}

// AllNodes is the filter of kind on all nodes.
func AllNodes(kind string) string {
	return topicRoot + "/+/+/" + kind
}

// NodeMeta provides metadata of a node.
type NodeMeta struct {
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	AgentID     int               `json:"agent_id"`
	Address     string            `json:"address,omitempty"`
	Port        int               `json:"port,omitempty"`
}

// NodeInfo provides information of a node.
type NodeInfo struct {
	Ref  NodeRef
	Meta NodeMeta
}
