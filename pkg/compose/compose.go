// Package compose builds the subject and body of an aggregated log
// notification. Composition is pure: the same buffer always produces
// the same message.
package compose

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/okanacar/mailsink/pkg/severity"
)

// Data is the input to message composition. Entries are rendered log
// lines in the order they were recorded; Severity is the uppercased
// name of the highest level observed, not the last one.
type Data struct {
	Site     string
	Severity string
	Count    int
	Entries  []string
	AdminURL string
}

// Composer turns a flushed buffer into a (subject, body) pair. The
// zero value uses the built-in wording; templates loaded with
// LoadTemplates override it.
type Composer struct {
	subjectTmpl *template.Template
	bodyTmpl    *template.Template
}

// New returns a composer with the default wording.
func New() *Composer {
	return &Composer{}
}

// Subject composes the notification subject. It always carries the
// site name, the uppercased maximum severity, and the entry count.
func (c *Composer) Subject(site string, max severity.Level, count int) string {
	data := Data{Site: site, Severity: strings.ToUpper(max.String()), Count: count}
	if c.subjectTmpl != nil {
		if s, err := execute(c.subjectTmpl, data); err == nil {
			return s
		}
	}
	noun := "log entries"
	if count == 1 {
		noun = "log entry"
	}
	return fmt.Sprintf("[%s] %s: %d new %s", data.Site, data.Severity, count, noun)
}

// Body composes the notification body: a plural-aware lead sentence,
// the entries verbatim in recorded order separated by blank lines, and
// a closing pointer at the site's log admin page.
func (c *Composer) Body(site string, entries []string, adminURL string) string {
	data := Data{Site: site, Count: len(entries), Entries: entries, AdminURL: adminURL}
	if c.bodyTmpl != nil {
		if s, err := execute(c.bodyTmpl, data); err == nil {
			return s
		}
	}

	var b strings.Builder
	if len(entries) == 1 {
		b.WriteString("One log entry was recorded that needs your attention.\n\n")
	} else {
		fmt.Fprintf(&b, "%d log entries were recorded that need your attention.\n\n", len(entries))
	}
	b.WriteString(strings.Join(entries, "\n\n"))
	fmt.Fprintf(&b, "\n\nCheck the recent log entries for %s at %s.\n", site, adminURL)
	return b.String()
}

func execute(t *template.Template, data Data) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
