// Package export renders the task state in formats other tools can read.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nibzard/ticklist/internal/storage"
	"github.com/nibzard/ticklist/internal/todo"
)

// Format is an export format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatICS  Format = "ics"
)

// Formats lists the supported formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatICS}

// ParseFormat parses a format name. "yml" and "ical" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "ics", "ical", "icalendar":
		return FormatICS, nil
	}
	return "", fmt.Errorf("unknown export format %q (expected %s)", s, formatNames("|"))
}

func formatNames(sep string) string {
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return strings.Join(names, sep)
}

// Usage describes the accepted format names for flag help.
func Usage() string {
	return "Format (" + formatNames(", ") + "); default from -o extension, else json"
}

// Ext returns the usual file extension, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// Write renders state to w. now stamps ICS events.
func Write(w io.Writer, format Format, state todo.State, now time.Time) error {
	switch format {
	case FormatJSON:
		data, err := storage.Encode(state)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatYAML:
		return writeYAML(w, state)
	case FormatICS:
		_, err := io.WriteString(w, BuildCalendar(state.Tasks, now))
		return err
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

type yamlTask struct {
	ID        int64  `yaml:"id"`
	Text      string `yaml:"text"`
	Completed bool   `yaml:"completed"`
	Priority  string `yaml:"priority,omitempty"`
	CreatedAt string `yaml:"created_at,omitempty"`
	DueDate   string `yaml:"due_date,omitempty"`
	DeletedAt string `yaml:"deleted_at,omitempty"`
}

type yamlDocument struct {
	SchemaVersion int        `yaml:"schema_version"`
	Tasks         []yamlTask `yaml:"tasks"`
	DeletedTasks  []yamlTask `yaml:"deleted_tasks"`
}

func writeYAML(w io.Writer, state todo.State) error {
	doc := yamlDocument{
		SchemaVersion: storage.CurrentSchemaVersion,
		Tasks:         toYAML(state.Tasks),
		DeletedTasks:  toYAML(state.DeletedTasks),
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func toYAML(tasks []todo.Task) []yamlTask {
	out := make([]yamlTask, 0, len(tasks))
	for _, t := range tasks {
		yt := yamlTask{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			Priority:  string(t.Priority),
			CreatedAt: formatTime(&t.CreatedAt),
			DueDate:   formatTime(t.DueDate),
			DeletedAt: formatTime(t.DeletedAt),
		}
		out = append(out, yt)
	}
	return out
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
