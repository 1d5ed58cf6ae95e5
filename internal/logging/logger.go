package logging

// Logger is a deliberately small, framework-agnostic logging interface.
type Logger interface {
	// Debug logs a debug-level message.
	Debug(msg string, fields ...Field)

	// Info logs an informational message.
	Info(msg string, fields ...Field)

	// Warn logs a warning.
	Warn(msg string, fields ...Field)

	// Error logs an error.
	Error(msg string, fields ...Field)

	// With returns a child logger with persistent fields.
	With(fields ...Field) Logger
}

// Field is a simple key/value pair for structured logging fields.
type Field struct {
	Key   string
	Value interface{}
}

// Err is shorthand for the "error" field.
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Component is shorthand for the "component" field used by child loggers.
func Component(name string) Field {
	return Field{Key: "component", Value: name}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(string, ...Field)  {}
func (Nop) Info(string, ...Field)   {}
func (Nop) Warn(string, ...Field)   {}
func (Nop) Error(string, ...Field)  {}
func (n Nop) With(...Field) Logger { return n }
