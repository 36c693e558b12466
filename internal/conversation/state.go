package conversation

import (
	"strings"

	"github.com/nerrad567/irrigation-relay/internal/chat"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

// State is an operator's position in the registration handshake.
type State int

// Conversation states.
const (
	StateIdle State = iota
	StateAwaitingCode
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingCode:
		return "awaiting_code"
	default:
		return "unknown"
	}
}

// Event is a classified operator input.
type Event int

// Conversation events.
const (
	EventFreeText Event = iota
	EventStart
	EventRegisterIntent
	EventRegisterWithCode
	EventHelp
	EventStatus
	EventStartIrrigation
	EventStopIrrigation
	EventUnknownCommand
)

func (e Event) String() string {
	switch e {
	case EventFreeText:
		return "free_text"
	case EventStart:
		return "start"
	case EventRegisterIntent:
		return "register_intent"
	case EventRegisterWithCode:
		return "register_with_code"
	case EventHelp:
		return "help"
	case EventStatus:
		return "status"
	case EventStartIrrigation:
		return "start_irrigation"
	case EventStopIrrigation:
		return "stop_irrigation"
	default:
		return "unknown_command"
	}
}

// Input is one operator interaction: a text message or a button press.
type Input struct {
	Operator registry.OperatorID

	// Text is the message text. Ignored when Action is set.
	Text string

	// Action is the callback data of a pressed inline button.
	Action string
}

// Classify maps in to an event and its arguments. Commands are
// case-sensitive; a "@botname" suffix on the command is ignored.
func Classify(in Input) (Event, []string) {
	if in.Action != "" {
		switch in.Action {
		case chat.ActionRegister:
			return EventRegisterIntent, nil
		case chat.ActionStatus:
			return EventStatus, nil
		case chat.ActionHelp:
			return EventHelp, nil
		default:
			return EventUnknownCommand, nil
		}
	}

	text := strings.TrimSpace(in.Text)
	if !strings.HasPrefix(text, "/") {
		return EventFreeText, []string{text}
	}

	fields := strings.Fields(text)
	command, _, _ := strings.Cut(fields[0], "@")
	args := fields[1:]

	switch command {
	case "/start":
		return EventStart, nil
	case "/register":
		if len(args) == 0 {
			return EventRegisterIntent, nil
		}
		return EventRegisterWithCode, args
	case "/help":
		return EventHelp, nil
	case "/status", "/get_status":
		return EventStatus, args
	case "/start_irrigation":
		return EventStartIrrigation, args
	case "/stop_irrigation":
		return EventStopIrrigation, args
	default:
		return EventUnknownCommand, []string{command}
	}
}
