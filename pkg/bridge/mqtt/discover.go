package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// DefaultDiscoverTimeout defines the default timeout value of discovery.
const DefaultDiscoverTimeout = 500 * time.Millisecond

// Connector is used by operator tools to find and watch nodes.
type Connector struct {
	DiscoverTimeout time.Duration

	options     *paho.ClientOptions
	topicPrefix string
}

// NewConnector creates a Connector.
func NewConnector(brokerURL string) (*Connector, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	return &Connector{
		DiscoverTimeout: DefaultDiscoverTimeout,
		options:         opts,
		topicPrefix:     topicPrefix,
	}, nil
}

// NewQueue creates a Queue on the broker of the connector.
func (c *Connector) NewQueue() *Queue {
	return NewQueue(c.options, c.topicPrefix)
}

// Discover enumerates nodes with retained meta.
func (c *Connector) Discover(ctx context.Context) (res []NodeInfo, err error) {
	q := c.NewQueue()
	if err = q.ConnectWait(c.timeout()); err != nil {
		return nil, err
	}
	defer q.Close()
	infoCh := make(chan NodeInfo, 1)
	q.Sub(AllNodes(TopicMeta), Handler(func(topic string, payload []byte) {
		info, ok := ParseMeta(topic, payload)
		if !ok {
			return
		}
		select {
		case infoCh <- info:
		case <-time.After(time.Second):
		}
	}))

	timeout := time.After(c.timeout())
	for {
		select {
		case info := <-infoCh:
			res = append(res, info)
		case <-timeout:
			return
		case <-ctx.Done():
			err = ctx.Err()
			return
		}
	}
}

func (c *Connector) timeout() time.Duration {
	if c.DiscoverTimeout == 0 {
		return DefaultDiscoverTimeout
	}
	return c.DiscoverTimeout
}

// ParseMeta decodes a meta message. An empty payload is a node leaving.
func ParseMeta(topic string, payload []byte) (NodeInfo, bool) {
	ref, kind, ok := ParseTopic(topic)
	if !ok || kind != TopicMeta || len(payload) == 0 {
		return NodeInfo{}, false
	}
	info := NodeInfo{Ref: ref}
	if err := json.Unmarshal(payload, &info.Meta); err != nil {
		glog.Warningf("%s: bad meta: %v", topic, err)
	}
	return info, true
}
