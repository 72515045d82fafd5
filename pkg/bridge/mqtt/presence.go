package mqtt

import (
	"context"
	"encoding/json"

	"github.com/golang/glog"
)

// Presence announces a node with a retained meta message. The broker
// clears it through the will when the node disappears.
type Presence struct {
	Queue *Queue
	Info  NodeInfo

	metaJSON []byte
}

// NewPresence creates a Presence and its Queue.
func NewPresence(brokerURL string, info NodeInfo) (*Presence, error) {
	meta, err := json.Marshal(&info.Meta)
	if err != nil {
		return nil, err
	}
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetBinaryWill(topicPrefix+info.Ref.Topic(TopicMeta), nil, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("fleetlink:" + info.Ref.Name())
	}
	p := &Presence{
		Queue:    NewQueue(opts, topicPrefix),
		Info:     info,
		metaJSON: meta,
	}
	p.Queue.OnConnect = func(*Queue) { p.announce() }
	return p, nil
}

// Run implements Runnable.
func (p *Presence) Run(ctx context.Context) error {
	p.Queue.Connect()
	<-ctx.Done()
	p.Queue.PubWith(p.Info.Ref.Topic(TopicMeta), nil, 1, true).Wait()
	p.Queue.Close()
	return nil
}

func (p *Presence) announce() {
	glog.Infof("announce %s", p.Info.Ref.Name())
	p.Queue.PubWith(p.Info.Ref.Topic(TopicMeta), p.metaJSON, 1, true)
}
