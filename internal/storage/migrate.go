package storage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nibzard/ticklist/internal/todo"
)

// CurrentSchemaVersion is the version written by Save.
const CurrentSchemaVersion = 1

// document is the on-disk shape of the current version.
type document struct {
	SchemaVersion int         `json:"schemaVersion"`
	Tasks         []todo.Task `json:"tasks"`
	DeletedTasks  []todo.Task `json:"deletedTasks"`
}

// migration rewrites a document of one version into the next.
type migration func(data []byte) ([]byte, error)

// migrations is keyed by the version a step upgrades from.
var migrations = map[int]migration{
	0: migrateBareArray,
}

// detectVersion reports the schema version of raw document bytes.
func detectVersion(data []byte) (int, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrMalformedDocument)
	}

	switch trimmed[0] {
	case '[':
		return 0, nil
	case '{':
		var probe struct {
			SchemaVersion *int `json:"schemaVersion"`
		}
		if err := json.Unmarshal(trimmed, &probe); err != nil {
			return 0, fmt.Errorf("parse document header: %w", err)
		}
		if probe.SchemaVersion == nil {
			return 1, nil
		}
		if *probe.SchemaVersion < 1 {
			return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, *probe.SchemaVersion)
		}
		return *probe.SchemaVersion, nil
	default:
		return 0, fmt.Errorf("%w: starts with %q", ErrMalformedDocument, trimmed[0])
	}
}

// migrateBareArray wraps a legacy task array as version 1 with no deleted tasks.
func migrateBareArray(data []byte) ([]byte, error) {
	var tasks []json.RawMessage
	if err := json.Unmarshal(data, &tasks); err != nil {
		return nil, fmt.Errorf("parse legacy task array: %w", err)
	}
	if tasks == nil {
		tasks = []json.RawMessage{}
	}
	return json.Marshal(struct {
		SchemaVersion int               `json:"schemaVersion"`
		Tasks         []json.RawMessage `json:"tasks"`
		DeletedTasks  []json.RawMessage `json:"deletedTasks"`
	}{1, tasks, []json.RawMessage{}})
}

// timestampFields are the task fields where an empty string means absent.
var timestampFields = []string{"createdAt", "dueDate", "deletedAt"}

// blankTimestamps rewrites empty-string timestamps in a current-version
// document to null so a hand-edited "" does not fail the whole decode.
// Data it cannot read is returned unchanged for decode to report.
func blankTimestamps(data []byte) []byte {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return data
	}
	changed := false
	for _, key := range []string{"tasks", "deletedTasks"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var tasks []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &tasks); err != nil {
			return data
		}
		rewrote := false
		for _, t := range tasks {
			for _, field := range timestampFields {
				var s string
				if v, ok := t[field]; ok && json.Unmarshal(v, &s) == nil && strings.TrimSpace(s) == "" {
					t[field] = json.RawMessage("null")
					rewrote = true
				}
			}
		}
		if !rewrote {
			continue
		}
		out, err := json.Marshal(tasks)
		if err != nil {
			return data
		}
		doc[key] = out
		changed = true
	}
	if !changed {
		return data
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return data
	}
	return out
}

// decode migrates data to the current version and decodes it. It returns
// the version the data was read as.
func decode(data []byte) (todo.State, int, error) {
	from, err := detectVersion(data)
	if err != nil {
		return todo.State{}, 0, err
	}
	if from > CurrentSchemaVersion {
		return todo.State{}, from, fmt.Errorf("%w: %d (newest supported is %d)",
			ErrUnsupportedVersion, from, CurrentSchemaVersion)
	}

	for v := from; v < CurrentSchemaVersion; v++ {
		step, ok := migrations[v]
		if !ok {
			return todo.State{}, from, fmt.Errorf("no migration from version %d", v)
		}
		if data, err = step(data); err != nil {
			return todo.State{}, from, fmt.Errorf("migrate from version %d: %w", v, err)
		}
	}

	data = blankTimestamps(data)

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return todo.State{}, from, fmt.Errorf("parse task document: %w", err)
	}
	state := todo.State{Tasks: doc.Tasks, DeletedTasks: doc.DeletedTasks}
	state.Normalize()
	return state, from, nil
}

// Encode renders state as a current-version document, the exact bytes a
// save writes.
func Encode(state todo.State) ([]byte, error) {
	return encode(state)
}

// encode renders state as a current-version document with 2-space
// indentation and a trailing newline.
func encode(state todo.State) ([]byte, error) {
	state.Normalize()
	data, err := json.MarshalIndent(document{
		SchemaVersion: CurrentSchemaVersion,
		Tasks:         state.Tasks,
		DeletedTasks:  state.DeletedTasks,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal task document: %w", err)
	}
	return append(data, '\n'), nil
}
