package sink

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okanacar/mailsink/pkg/severity"
)

// Entry is one log event offered to the sink. The sink never retains
// an Entry; it stores only the rendered text.
type Entry struct {
	Time    time.Time      `json:"time"`
	Level   severity.Level `json:"level"`
	Message string         `json:"message"`
	Source  string         `json:"source,omitempty"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// render produces the stable, human-readable line stored in the
// buffer and later joined into the notification body. Fields are
// sorted by key so the same entry always renders the same way.
func (e Entry) render() string {
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	var b strings.Builder
	b.WriteString(ts.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, " [%s]", e.Level)
	if e.Source != "" {
		fmt.Fprintf(&b, " %s:", e.Source)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)

	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = fmt.Sprintf("%s=%v", k, e.Fields[k])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(pairs, " "))
	}
	return b.String()
}
