package types

import (
	"fmt"
	"sync"
	"time"
)

// WarningLevel represents the severity of a warning
type WarningLevel string

const (
	WarningLevelInfo    WarningLevel = "info"
	WarningLevelWarning WarningLevel = "warning"
	WarningLevelError   WarningLevel = "error" // Non-fatal error that should be reported
)

// Warning represents a non-fatal issue encountered while matching or annotating
type Warning struct {
	Level     WarningLevel           `json:"level"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Error implements the error interface so warnings can be used as errors if needed
func (w *Warning) Error() string {
	if w.Code != "" {
		return fmt.Sprintf("[%s] %s: %s", w.Level, w.Code, w.Message)
	}
	return fmt.Sprintf("[%s] %s", w.Level, w.Message)
}

// WithContext adds context to the warning and returns the same warning for chaining
func (w *Warning) WithContext(key string, value interface{}) *Warning {
	if w.Context == nil {
		w.Context = make(map[string]interface{})
	}
	w.Context[key] = value
	return w
}

// NewWarning creates a new warning with the given level and message
func NewWarning(level WarningLevel, message string) *Warning {
	return &Warning{
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Context:   make(map[string]interface{}),
	}
}

// NewWarningf creates a new warning with a formatted message
func NewWarningf(level WarningLevel, format string, args ...interface{}) *Warning {
	return NewWarning(level, fmt.Sprintf(format, args...))
}

// NewWarningWithCode creates a new warning with a code
func NewWarningWithCode(level WarningLevel, code, message string) *Warning {
	w := NewWarning(level, message)
	w.Code = code
	return w
}

// WarningFromError turns a structured error into a warning carrying its code and context
func WarningFromError(level WarningLevel, err *Error) *Warning {
	w := NewWarningWithCode(level, string(err.Code), err.Message)
	for k, v := range err.Context {
		w.Context[k] = v
	}
	return w
}

// WarningCollector collects warnings. It is safe for concurrent use.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []*Warning
	enabled  bool
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector(enabled bool) *WarningCollector {
	return &WarningCollector{
		warnings: make([]*Warning, 0),
		enabled:  enabled,
	}
}

// Add adds a warning to the collector
func (wc *WarningCollector) Add(warning *Warning) {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if wc.enabled && warning != nil {
		wc.warnings = append(wc.warnings, warning)
	}
}

// AddWarningf adds a warning with a formatted message
func (wc *WarningCollector) AddWarningf(level WarningLevel, format string, args ...interface{}) {
	wc.Add(NewWarningf(level, format, args...))
}

// AddWarningWithCode adds a warning with a code
func (wc *WarningCollector) AddWarningWithCode(level WarningLevel, code, message string) {
	wc.Add(NewWarningWithCode(level, code, message))
}

// Warnings returns a copy of all collected warnings
func (wc *WarningCollector) Warnings() []*Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	out := make([]*Warning, len(wc.warnings))
	copy(out, wc.warnings)
	return out
}

// Count returns the number of warnings collected
func (wc *WarningCollector) Count() int {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings)
}

// HasWarnings returns true if any warnings have been collected
func (wc *WarningCollector) HasWarnings() bool {
	return wc.Count() > 0
}

// GetByCode returns warnings filtered by code
func (wc *WarningCollector) GetByCode(code string) []*Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	result := make([]*Warning, 0)
	for _, w := range wc.warnings {
		if w.Code == code {
			result = append(result, w)
		}
	}
	return result
}

// FilterByLevel returns warnings filtered by level
func (wc *WarningCollector) FilterByLevel(level WarningLevel) []*Warning {
	wc.mu.Lock()
	defer wc.mu.Unlock()
	result := make([]*Warning, 0)
	for _, w := range wc.warnings {
		if w.Level == level {
			result = append(result, w)
		}
	}
	return result
}
