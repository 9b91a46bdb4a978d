// Package severity defines the ordered scale of log severity levels.
//
// Levels follow the syslog naming (debug through emergency) but use
// ascending numeric ranks, so a plain > comparison means "more severe".
package severity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Level is a log severity level. Higher values are more severe.
type Level int

const (
	Debug Level = iota
	Info
	Notice
	Warning
	Error
	Critical
	Alert
	Emergency
)

var names = [...]string{
	Debug:     "debug",
	Info:      "info",
	Notice:    "notice",
	Warning:   "warning",
	Error:     "error",
	Critical:  "critical",
	Alert:     "alert",
	Emergency: "emergency",
}

// String returns the canonical lowercase name of the level.
func (l Level) String() string {
	if l < Debug || l > Emergency {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return names[l]
}

// Valid reports whether l is one of the defined levels.
func (l Level) Valid() bool {
	return l >= Debug && l <= Emergency
}

// ParseLevel converts a level name to its Level. The comparison is
// case-insensitive. Unknown names are a caller error and are rejected;
// every API boundary applies this same policy.
func ParseLevel(name string) (Level, error) {
	for l, n := range names {
		if strings.EqualFold(name, n) {
			return Level(l), nil
		}
	}
	return 0, fmt.Errorf("severity: unknown level %q", name)
}

// MarshalJSON encodes the level as its canonical name.
func (l Level) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("severity: cannot marshal invalid level %d", int(l))
	}
	return json.Marshal(l.String())
}

// UnmarshalJSON decodes a level name, applying the same unknown-name
// rejection as ParseLevel.
func (l *Level) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return fmt.Errorf("severity: level must be a string: %w", err)
	}
	parsed, err := ParseLevel(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Levels returns all defined levels in ascending order of severity.
func Levels() []Level {
	out := make([]Level, len(names))
	for i := range names {
		out[i] = Level(i)
	}
	return out
}
