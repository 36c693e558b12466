// Package notify delivers device reports and acknowledgements to the
// operator registered for the device.
//
// Every delivery returns a Result instead of an error:
//
//   - Delivered: the chat transport accepted the message
//   - NoRecipient: no operator is registered for the device (logged, dropped)
//   - DeliveryFailed: the lookup or the send failed (logged, not retried)
//
// Delivery is at most once. There is no outbox or retry queue.
package notify
