package top

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robotalks/fleetlink/pkg/bridge/mqtt"
)

// Subscribe forwards the bridged messages of all nodes to send.
func Subscribe(q *mqtt.Queue, send func(tea.Msg)) []*mqtt.Subscription {
	handler := mqtt.Handler(func(topic string, payload []byte) {
		if msg, ok := MsgFromPayload(topic, payload); ok {
			send(msg)
		}
	})
	return []*mqtt.Subscription{
		q.Sub(mqtt.AllNodes(mqtt.TopicMeta), handler),
		q.Sub(mqtt.AllNodes(mqtt.TopicStats), handler),
		q.Sub(mqtt.AllNodes(mqtt.TopicState), handler),
	}
}

// Run shows the dashboard until the user quits or ctx is done.
func Run(ctx context.Context, q *mqtt.Queue, title string) error {
	p := tea.NewProgram(NewModel(title), tea.WithAltScreen())
	Subscribe(q, p.Send)
	q.Connect()
	defer q.Close()
	go func() {
		<-ctx.Done()
		p.Quit()
	}()
	_, err := p.Run()
	return err
}
