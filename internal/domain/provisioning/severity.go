package provisioning

import "errors"

// Severity classifies the urgency of a state record's message. Progress
// reporters attach a severity to each update; an ERROR severity observed
// mid-install fails the install.
type Severity string

// ErrSeverityUnknown is returned when a severity string is unknown.
var ErrSeverityUnknown = errors.New("severity unknown")

const (
	// SeverityInfo is routine progress information.
	SeverityInfo Severity = "INFO"

	// SeverityWarning signals a recoverable problem worth surfacing.
	SeverityWarning Severity = "WARNING"

	// SeverityError signals an unrecoverable failure of the current install.
	SeverityError Severity = "ERROR"
)

// String returns the string representation of the Severity.
func (s Severity) String() string { return string(s) }

// IsKnown reports whether s is one of the known severities.
func (s Severity) IsKnown() bool {
	return s == SeverityInfo || s == SeverityWarning || s == SeverityError
}

// ParseSeverity converts a string to a Severity.
// Returns ErrSeverityUnknown for unrecognized values.
func ParseSeverity(s string) (Severity, error) {
	switch s {
	case "INFO":
		return SeverityInfo, nil
	case "WARNING":
		return SeverityWarning, nil
	case "ERROR":
		return SeverityError, nil
	default:
		return "", ErrSeverityUnknown
	}
}
