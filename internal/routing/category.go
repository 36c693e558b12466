package routing

// Category is the purpose of a bus message.
type Category int

// Message categories.
const (
	CategoryUnknown Category = iota
	StatusRequest
	StatusResponse
	IrrigationStartRequest
	IrrigationStartResponse
	IrrigationStopRequest
	IrrigationStopResponse
)

var categorySegments = map[Category]string{
	StatusRequest:           "status/request",
	StatusResponse:          "status/response",
	IrrigationStartRequest:  "irrigation/start/request",
	IrrigationStartResponse: "irrigation/start/response",
	IrrigationStopRequest:   "irrigation/stop/request",
	IrrigationStopResponse:  "irrigation/stop/response",
}

var categoryNames = map[Category]string{
	StatusRequest:           "status-request",
	StatusResponse:          "status-response",
	IrrigationStartRequest:  "irrigation-start-request",
	IrrigationStartResponse: "irrigation-start-response",
	IrrigationStopRequest:   "irrigation-stop-request",
	IrrigationStopResponse:  "irrigation-stop-response",
}

// segmentCategories is the reverse of categorySegments.
var segmentCategories = func() map[string]Category {
	m := make(map[string]Category, len(categorySegments))
	for c, s := range categorySegments {
		m[s] = c
	}
	return m
}()

// Segment returns the topic suffix for c, or "" for CategoryUnknown.
func (c Category) Segment() string {
	return categorySegments[c]
}

// String returns the hyphenated name used in logs and metrics labels.
func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "unknown"
}

// IsRequest reports whether c flows relay → device.
func (c Category) IsRequest() bool {
	switch c {
	case StatusRequest, IrrigationStartRequest, IrrigationStopRequest:
		return true
	}
	return false
}

// IsResponse reports whether c flows device → relay.
func (c Category) IsResponse() bool {
	switch c {
	case StatusResponse, IrrigationStartResponse, IrrigationStopResponse:
		return true
	}
	return false
}

// ResponseFor returns the category a device answers c with, or
// CategoryUnknown when c is not a request.
func (c Category) ResponseFor() Category {
	switch c {
	case StatusRequest:
		return StatusResponse
	case IrrigationStartRequest:
		return IrrigationStartResponse
	case IrrigationStopRequest:
		return IrrigationStopResponse
	}
	return CategoryUnknown
}

// RequestCategories lists the relay → device categories in a fixed order.
func RequestCategories() []Category {
	return []Category{StatusRequest, IrrigationStartRequest, IrrigationStopRequest}
}

// ResponseCategories lists the device → relay categories in a fixed order.
func ResponseCategories() []Category {
	return []Category{StatusResponse, IrrigationStartResponse, IrrigationStopResponse}
}
