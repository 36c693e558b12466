// Package conversation interprets operator chat input as commands and
// drives the two-step registration handshake.
//
// Each operator is in one of two states:
//
//	StateIdle          --register intent-->           StateAwaitingCode
//	StateAwaitingCode  --valid device code-->         StateIdle
//	StateAwaitingCode  --anything else (free text)--> StateAwaitingCode
//
// The state is not held in memory. It is derived from the registry's
// pending flag, so operators are independent of each other and an
// in-progress registration survives a restart when the store is durable.
//
// The Machine is transport-neutral: it takes an Input and returns the chat
// messages to send back. The Telegram adapter feeds it one update at a time
// in arrival order.
package conversation
