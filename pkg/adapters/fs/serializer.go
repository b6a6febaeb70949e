package fs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/arbor/pkg/core"
	"gopkg.in/yaml.v3"
)

// FormatVersion is the version written in the document header.
const FormatVersion = 1

// Serializer defines how a whole collection is encoded in a specific file format.
type Serializer interface {
	// Parse decodes a collection. Records that cannot be decoded are
	// skipped and reported; an error means the document itself is malformed.
	Parse(data []byte) ([]core.Note, []core.Issue, error)
	// Serialize encodes the collection.
	Serialize(notes []core.Note) ([]byte, error)
}

// DefaultSerializers returns the standard set of serializers keyed by extension.
func DefaultSerializers() map[string]Serializer {
	return map[string]Serializer{
		".json": NewJSONSerializer(),
		".yaml": NewYAMLSerializer(),
		".yml":  NewYAMLSerializer(),
	}
}

// record is the persisted shape of a note.
type record struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Content   string   `json:"content" yaml:"content"`
	Tags      []string `json:"tags" yaml:"tags"`
	ParentID  *string  `json:"parent_id" yaml:"parent_id"`
	Order     float64  `json:"order" yaml:"order"`
	CreatedAt string   `json:"created_at" yaml:"created_at"`
	UpdatedAt string   `json:"updated_at" yaml:"updated_at"`
}

// document is the persisted file layout. A bare list of records is
// accepted on read as well.
type document struct {
	Version int      `json:"version" yaml:"version"`
	Notes   []record `json:"notes" yaml:"notes"`
}

// jsonDocument and yamlDocument defer record decoding so that one bad
// record does not reject the others.
type jsonDocument struct {
	Version int               `json:"version"`
	Notes   []json.RawMessage `json:"notes"`
}

type yamlDocument struct {
	Version int         `yaml:"version"`
	Notes   []yaml.Node `yaml:"notes"`
}

func toRecords(notes []core.Note) []record {
	out := make([]record, 0, len(notes))
	for _, n := range notes {
		r := record{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			Tags:      n.Tags,
			Order:     n.Order,
			CreatedAt: formatTime(n.CreatedAt),
			UpdatedAt: formatTime(n.UpdatedAt),
		}
		if r.Tags == nil {
			r.Tags = []string{}
		}
		if n.ParentID != "" {
			parent := n.ParentID
			r.ParentID = &parent
		}
		out = append(out, r)
	}
	return out
}

func fromRecord(r record) (core.Note, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Note{}, fmt.Errorf("created_at: %w", err)
	}
	updated, err := parseTime(r.UpdatedAt)
	if err != nil {
		return core.Note{}, fmt.Errorf("updated_at: %w", err)
	}
	n := core.Note{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Tags:      r.Tags,
		Order:     r.Order,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if r.ParentID != nil {
		n.ParentID = *r.ParentID
	}
	return n, nil
}

// decodeRecords decodes each record on its own. decode fills the record at
// index i and reports its id on a best-effort basis for the issue.
func decodeRecords(count int, decode func(i int, r *record) (id string, err error)) ([]core.Note, []core.Issue) {
	notes := make([]core.Note, 0, count)
	var skipped []core.Issue
	for i := range count {
		var r record
		id, err := decode(i, &r)
		var n core.Note
		if err == nil {
			n, err = fromRecord(r)
		}
		if err != nil {
			skipped = append(skipped, core.Issue{ID: id, Problem: fmt.Sprintf("record %d skipped: %v", i, err)})
			continue
		}
		notes = append(notes, n)
	}
	return notes, skipped
}

func checkVersion(v int) error {
	if v > FormatVersion {
		return fmt.Errorf("unsupported format version %d (max %d)", v, FormatVersion)
	}
	return nil
}

// --- JSON Serializer ---

// JSONSerializer handles reading and writing JSON files.
type JSONSerializer struct{}

// NewJSONSerializer creates a new JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

func (s *JSONSerializer) Parse(data []byte) ([]core.Note, []core.Issue, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(trimmed))
	var raw []json.RawMessage
	switch trimmed[0] {
	case '[':
		if err := decoder.Decode(&raw); err != nil {
			return nil, nil, fmt.Errorf("invalid json: %w", err)
		}
	case '{':
		var doc jsonDocument
		if err := decoder.Decode(&doc); err != nil {
			return nil, nil, fmt.Errorf("invalid json: %w", err)
		}
		if err := checkVersion(doc.Version); err != nil {
			return nil, nil, err
		}
		raw = doc.Notes
	default:
		return nil, nil, errors.New("invalid json: expected an object or a list of notes")
	}
	if decoder.More() {
		return nil, nil, errors.New("invalid json: trailing data after document")
	}

	notes, skipped := decodeRecords(len(raw), func(i int, r *record) (string, error) {
		var head struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(raw[i], &head)
		return head.ID, json.Unmarshal(raw[i], r)
	})
	return notes, skipped, nil
}

func (s *JSONSerializer) Serialize(notes []core.Note) ([]byte, error) {
	data, err := json.MarshalIndent(document{Version: FormatVersion, Notes: toRecords(notes)}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// --- YAML Serializer ---

// YAMLSerializer handles reading and writing YAML files.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a new YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

func (s *YAMLSerializer) Parse(data []byte) ([]core.Note, []core.Issue, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil, nil, nil
	}

	body := root.Content[0]
	var nodes []*yaml.Node
	switch body.Kind {
	case yaml.SequenceNode:
		nodes = body.Content
	case yaml.MappingNode:
		var doc yamlDocument
		if err := body.Decode(&doc); err != nil {
			return nil, nil, fmt.Errorf("invalid yaml: %w", err)
		}
		if err := checkVersion(doc.Version); err != nil {
			return nil, nil, err
		}
		for i := range doc.Notes {
			nodes = append(nodes, &doc.Notes[i])
		}
	default:
		return nil, nil, errors.New("invalid yaml: expected a mapping or a list of notes")
	}

	notes, skipped := decodeRecords(len(nodes), func(i int, r *record) (string, error) {
		var head struct {
			ID string `yaml:"id"`
		}
		_ = nodes[i].Decode(&head)
		return head.ID, nodes[i].Decode(r)
	})
	return notes, skipped, nil
}

func (s *YAMLSerializer) Serialize(notes []core.Note) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(document{Version: FormatVersion, Notes: toRecords(notes)}); err != nil {
		return nil, err
	}
	if err := encoder.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// --- Helpers ---

// timeLayouts are tried in order when reading timestamps. The last two
// cover timezone-less ISO-8601 values, which are taken as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
