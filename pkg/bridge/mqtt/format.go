package mqtt

import (
	"fmt"
	"reflect"

	"github.com/robotalks/fleetlink/pkg/bridge/msgs"
)

// FormatPayload renders a bridged message for display.
func FormatPayload(topic string, payload []byte) string {
	if _, kind, ok := ParseTopic(topic); ok && kind == TopicMeta {
		if len(payload) == 0 {
			return topic + ": (gone)"
		}
		return fmt.Sprintf("%s: %s", topic, string(payload))
	}
	typed, err := msgs.DecodeTyped(payload)
	if err != nil {
		return fmt.Sprintf("%s: bad message: %v", topic, err)
	}
	msg, err := typed.Decode()
	if err != nil {
		return fmt.Sprintf("%s: decode error: (type_id=%x) %v", topic, typed.TypeId, err)
	}
	return fmt.Sprintf("%s: #%d [%s] %s", topic, typed.Sequence,
		reflect.Indirect(reflect.ValueOf(msg)).Type().Name(),
		msg.(msgs.SerializableMessage).Serializable().String())
}
