package pricing

import "fmt"

// ValidationError names the input field that aborted the calculation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConfigurationError reports missing or out-of-range policy parameters
// (escalation band). Fatal only for the current calculation call.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "pricing config: " + e.Message
}
