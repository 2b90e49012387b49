package control

import "strings"

// ErrorCategory represents the classification of pipeline errors for telemetry
type ErrorCategory int

const (
	// ErrCategoryDevice indicates capture device failures (missing, busy, permissions)
	ErrCategoryDevice ErrorCategory = iota
	// ErrCategoryNegotiation indicates caps/format negotiation failures between stages
	ErrCategoryNegotiation
	// ErrCategoryResource indicates sink or system resource failures (display, memory)
	ErrCategoryResource
	// ErrCategoryUnknown indicates unclassified errors
	ErrCategoryUnknown
)

// String returns a human-readable string representation of the error category
func (e ErrorCategory) String() string {
	switch e {
	case ErrCategoryDevice:
		return "device"
	case ErrCategoryNegotiation:
		return "negotiation"
	case ErrCategoryResource:
		return "resource"
	default:
		return "unknown"
	}
}

var (
	deviceKeywords = []string{
		"v4l2",
		"/dev/video",
		"device",
		"busy",
		"permission denied",
		"no such file",
		"cannot identify",
		"could not open",
	}
	negotiationKeywords = []string{
		"not negotiated",
		"negotiation",
		"caps",
		"format",
		"internal data stream error",
	}
	resourceKeywords = []string{
		"display",
		"window",
		"out of memory",
		"no space",
		"resource",
	}
)

// ClassifyError categorizes a pipeline error from its message and debug text.
//
// Negotiation is checked first because debug text carries the element path
// (".../GstV4l2Src:source") for every source-side failure. Device wins over
// resource: a v4l2 "could not open resource" error is a device problem.
func ClassifyError(message, debug string) ErrorCategory {
	combined := strings.ToLower(message + " " + debug)

	switch {
	case containsAny(combined, negotiationKeywords):
		return ErrCategoryNegotiation
	case containsAny(combined, deviceKeywords):
		return ErrCategoryDevice
	case containsAny(combined, resourceKeywords):
		return ErrCategoryResource
	default:
		return ErrCategoryUnknown
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
