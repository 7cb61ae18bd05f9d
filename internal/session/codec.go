package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Format is a serialization format for session documents.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ErrInvalidRecord is returned (wrapped in a *ValidationError) when a record
// does not satisfy the session schema.
var ErrInvalidRecord = errors.New("invalid session record")

// ValidationError lists the schema problems found in one record of a document.
type ValidationError struct {
	Source   string
	Index    int
	Problems []string
}

func (e *ValidationError) Error() string {
	where := fmt.Sprintf("record %d", e.Index)
	if e.Source != "" {
		where = fmt.Sprintf("%s: %s", e.Source, where)
	}
	return fmt.Sprintf("%s: %s", where, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

// recordSchema is the contract every imported record must satisfy. The
// analytics assume validated input, so this is the only place ranges and
// enum values are enforced.
const recordSchema = `{
	"type": "object",
	"required": ["score", "created_at", "difficulty"],
	"properties": {
		"id": {"type": "string"},
		"user_id": {"type": "string"},
		"score": {"type": "integer", "minimum": 0, "maximum": 100},
		"criteria_scores": {
			"type": ["object", "null"],
			"required": ["accroche", "ecoute", "objections", "clarte", "conclusion"],
			"additionalProperties": false,
			"properties": {
				"accroche": {"type": "integer", "minimum": 0, "maximum": 100},
				"ecoute": {"type": "integer", "minimum": 0, "maximum": 100},
				"objections": {"type": "integer", "minimum": 0, "maximum": 100},
				"clarte": {"type": "integer", "minimum": 0, "maximum": 100},
				"conclusion": {"type": "integer", "minimum": 0, "maximum": 100}
			}
		},
		"recurrent_errors": {"type": ["array", "null"], "items": {"type": "string"}},
		"created_at": {"type": "string", "format": "date-time"},
		"difficulty": {"type": "string", "enum": ["easy", "medium", "hard"]},
		"scenario": {"type": "string"},
		"duration_seconds": {"type": "integer", "minimum": 0}
	}
}`

var compiledSchema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	if err != nil {
		panic(fmt.Sprintf("session: compiling record schema: %v", err))
	}
	compiledSchema = s
}

// FormatFromPath guesses the document format from a file extension.
// Anything that is not .yaml/.yml is treated as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ParseFormat converts a --format flag value into a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown format %q (want json or yaml)", s)
}

// Decode parses a document holding either a single record or a list of
// records. Each record is validated against the session schema; records
// without an ID are assigned a random UUID.
func Decode(data []byte, format Format) ([]Record, error) {
	return decode(data, format, "")
}

func decode(data []byte, format Format, source string) ([]Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
	}

	var items []any
	switch v := doc.(type) {
	case []any:
		items = v
	case nil:
		return nil, nil
	default:
		items = []any{v}
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		result, err := compiledSchema.Validate(gojsonschema.NewGoLoader(item))
		if err != nil {
			return nil, fmt.Errorf("validating record %d: %w", i, err)
		}
		if !result.Valid() {
			problems := make([]string, 0, len(result.Errors()))
			for _, re := range result.Errors() {
				problems = append(problems, re.String())
			}
			return nil, &ValidationError{Source: source, Index: i, Problems: problems}
		}

		// Round-trip through JSON so both formats share one decoding path.
		raw, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("re-encoding record %d: %w", i, err)
		}
		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decoding record %d: %w", i, err)
		}
		if rec.ID == "" {
			rec.ID = uuid.NewString()
		}
		records = append(records, rec)
	}
	return records, nil
}

// Encode serializes records as a list document in the given format.
func Encode(records []Record, format Format) ([]byte, error) {
	if records == nil {
		records = []Record{}
	}
	switch format {
	case FormatYAML:
		return yaml.Marshal(records)
	default:
		return json.MarshalIndent(records, "", "  ")
	}
}
