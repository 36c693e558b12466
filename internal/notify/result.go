package notify

// Result is the outcome of a delivery attempt.
type Result int

// Delivery results.
const (
	Delivered Result = iota
	NoRecipient
	DeliveryFailed
)

// String returns the snake_case name used in logs and metric labels.
func (r Result) String() string {
	switch r {
	case Delivered:
		return "delivered"
	case NoRecipient:
		return "no_recipient"
	case DeliveryFailed:
		return "delivery_failed"
	default:
		return "unknown"
	}
}

// Delivery kinds reported to the Observer.
const (
	KindReport = "report"
	KindAck    = "ack"
	KindNotice = "notice"
)
