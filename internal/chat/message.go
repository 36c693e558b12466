// Package chat defines the transport-neutral messages the relay sends to
// operators. Concrete transports live in subpackages.
package chat

// Message is one outbound chat message.
type Message struct {
	Text string

	// Buttons are rows of inline buttons shown under the message.
	Buttons [][]Button
}

// Button is an inline button. Action is returned verbatim as the callback
// data when the operator presses it.
type Button struct {
	Label  string
	Action string
}

// Button actions understood by the conversation machine.
const (
	ActionRegister = "register"
	ActionStatus   = "status"
	ActionHelp     = "help"
)

// Text returns a message with no buttons.
func Text(text string) Message {
	return Message{Text: text}
}
