package compiler

import "fmt"

// ConfigError indicates an invalid workload configuration: an unknown mode,
// or a task name outside the mode's allow-list. It is fatal to the whole
// compile call; no partial artifacts are retained.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "workload config: " + e.Reason
}

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}
