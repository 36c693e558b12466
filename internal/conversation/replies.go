package conversation

import (
	"fmt"

	"github.com/nerrad567/irrigation-relay/internal/chat"
	"github.com/nerrad567/irrigation-relay/internal/registry"
)

const (
	textWelcome       = "Welcome! Please choose an option:"
	textCodePrompt    = "Please send your ESP32 code (e.g., ESP_12345678) to register it."
	textInvalidCode   = "Invalid code. Please send a valid ESP32 code (e.g., ESP_12345678)."
	textFormatError   = "❌ Invalid format! Use ESP_ followed by 8 digits."
	textRegisterArgs  = "❌ Use /register <ESP_XXXXXXXX> to register your ESP32."
	textNotRegistered = "You have no registered ESP32. Please register it first using /register."
	textIdleHint      = "I didn't understand that. Send /help to see the available commands."
	textUnknown       = "❓ Unknown command %s. Send /help to see the available commands."
	textInternal      = "⚠️ Something went wrong. Please try again later."

	textHelp = `🤖 Available Commands:

/register - Register your ESP32 device
/register ESP_XXXXXXXX - Register a device in one step
/status - Request the current status of your ESP32
/start_irrigation - Start irrigation on your ESP32
/stop_irrigation - Stop irrigation on your ESP32
/help - Show this help message`
)

func welcome() chat.Message {
	return chat.Message{
		Text: textWelcome,
		Buttons: [][]chat.Button{
			{
				{Label: "Register ESP32", Action: chat.ActionRegister},
				{Label: "Check Irrigation Status", Action: chat.ActionStatus},
			},
			{
				{Label: "Help", Action: chat.ActionHelp},
			},
		},
	}
}

func registered(reg registry.Registration) chat.Message {
	text := fmt.Sprintf("✅ Your ESP32 (%s) has been registered.", reg.Device)
	if reg.PreviousDevice != "" {
		text += fmt.Sprintf("\nESP32 (%s) is no longer linked to your account.", reg.PreviousDevice)
	}
	return chat.Text(text)
}

func notYourDevice(code registry.DeviceCode) chat.Message {
	return chat.Text(fmt.Sprintf("❌ ESP32 (%s) is not registered to your account.", code))
}

func requestSent(event Event, code registry.DeviceCode) chat.Message {
	switch event {
	case EventStartIrrigation:
		return chat.Text(fmt.Sprintf("🚰 Irrigation start request sent to ESP32 (%s)!", code))
	case EventStopIrrigation:
		return chat.Text(fmt.Sprintf("🛑 Irrigation stop request sent to ESP32 (%s)!", code))
	default:
		return chat.Text(fmt.Sprintf("📩 Status request sent to ESP32 (%s)!", code))
	}
}

func busUnavailable(code registry.DeviceCode) chat.Message {
	return chat.Text(fmt.Sprintf("⚠️ Could not reach ESP32 (%s) right now. Please try again later.", code))
}

// InternalError is the reply transports send when Handle returns an error.
func InternalError() chat.Message {
	return chat.Text(textInternal)
}
