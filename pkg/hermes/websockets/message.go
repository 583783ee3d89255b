// Package websockets bridges an EventBus to remote clients over WebSocket.
//
// Every frame is a JSON WireMessage. Clients subscribe ("k":"s"),
// unsubscribe ("k":"u") and publish events (no "k"); the server answers
// requests carrying an "i" with an ack ("a") or nack ("n") and forwards
// matching events. Only hermes topics may be published.
package websockets

// Values of WireMessage.Kind.
const (
	MessageKindSubscribe   = "s"
	MessageKindUnsubscribe = "u"

	MessageKindAck  = "a"
	MessageKindNack = "n"

	// Events have no kind; they carry "t" and "d".
	MessageKindEvent = ""
)

type WireMessage struct {
	Kind  string `json:"k,omitempty"`
	Topic string `json:"t,omitempty"`
	Data  any    `json:"d,omitempty"`
	Id    any    `json:"i,omitempty"`
	Error string `json:"e,omitempty"`
}
