package sim

import "fmt"

// ConfigError reports a precondition violation detected before any epoch
// runs: missing funds, missing data, or an undeclared/unloaded ticker.
// It is always fatal.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}
