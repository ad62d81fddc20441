package amqp

import (
	"encoding/json"
	"time"

	"fintrack/internal/store"
)

// RoutingPrefix prefixes the slice name in event routing keys.
const RoutingPrefix = "state."

// StateChangedMessage announces one applied store action. It carries no
// entity payload; consumers read the state they need from storage.
type StateChangedMessage struct {
	Slice     string    `json:"slice"`
	Op        string    `json:"op"`
	ID        string    `json:"id,omitempty"`
	Month     string    `json:"month"`
	Timestamp time.Time `json:"at"`
}

func NewStateChangedMessage(c store.Change) *StateChangedMessage {
	return &StateChangedMessage{
		Slice:     string(c.Slice),
		Op:        c.Op,
		ID:        c.ID,
		Month:     c.CurrentMonth,
		Timestamp: c.At,
	}
}

// RoutingKey is state.<slice>.
func (m *StateChangedMessage) RoutingKey() string {
	return RoutingKey(store.Slice(m.Slice))
}

func RoutingKey(slice store.Slice) string {
	return RoutingPrefix + string(slice)
}

func (m *StateChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func StateChangedMessageFromJSON(data []byte) (*StateChangedMessage, error) {
	var msg StateChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
