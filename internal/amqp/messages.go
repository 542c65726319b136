package amqp

import (
	"encoding/json"
	"time"
)

// Register event types carried in RegisterEventMessage.Tipo.
const (
	EventEgresoRegistrado = "egreso.registrado"
	EventIngresoPY        = "ingreso.py.registrado"
	EventCajaCerrada      = "caja.cerrada"
)

// RegisterEventMessage notifies downstream consumers that something happened
// to a register day. It carries only identifiers and the amount; consumers
// fetch the rest from storage so a replayed message never carries stale data.
type RegisterEventMessage struct {
	Tipo       string    `json:"tipo"`
	Fecha      string    `json:"fecha"`
	MontoCents int64     `json:"montoCents,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewRegisterEventMessage creates an event message stamped with the current time
func NewRegisterEventMessage(tipo, fecha string, montoCents int64) *RegisterEventMessage {
	return &RegisterEventMessage{
		Tipo:       tipo,
		Fecha:      fecha,
		MontoCents: montoCents,
		Timestamp:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RegisterEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RegisterEventMessageFromJSON creates a message from JSON bytes
func RegisterEventMessageFromJSON(data []byte) (*RegisterEventMessage, error) {
	var msg RegisterEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
