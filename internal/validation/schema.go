// Package validation checks prediction payloads against an optional JSON Schema.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// PayloadError is returned when a payload violates the schema.
type PayloadError struct {
	Violations []string
}

func (e *PayloadError) Error() string {
	return "payload does not match schema: " + strings.Join(e.Violations, "; ")
}

// Schema is a compiled payload schema. A nil *Schema accepts everything.
type Schema struct {
	name string
	sch  *jsonschema.Schema
}

// CompileSchema compiles raw, a JSON or YAML schema document, under name.
func CompileSchema(name string, raw []byte) (*Schema, error) {
	doc, err := DecodePayload(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		return nil, fmt.Errorf("adding schema %s: %w", name, err)
	}
	sch, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compiling schema %s: %w", name, err)
	}
	return &Schema{name: name, sch: sch}, nil
}

// LoadSchema reads and compiles the schema file at path. An empty path
// returns a nil schema.
func LoadSchema(path string) (*Schema, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return CompileSchema(filepath.Base(path), data)
}

// Name returns the resource name the schema was compiled under.
func (s *Schema) Name() string {
	if s == nil {
		return ""
	}
	return s.name
}

// Validate returns a *PayloadError listing every violation, or nil.
func (s *Schema) Validate(payload any) error {
	if s == nil {
		return nil
	}
	if errs := validateAgainstSchema(s.sch, convertToJSONCompatible(payload)); len(errs) > 0 {
		return &PayloadError{Violations: errs}
	}
	return nil
}

// DecodePayload parses data as JSON, or as YAML when it is not valid JSON.
func DecodePayload(data []byte) (any, error) {
	if trimmed := bytes.TrimSpace(data); json.Valid(trimmed) {
		var v any
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, err
		}
		return v, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("YAML parse error: %w", err)
	}
	if v == nil {
		return nil, fmt.Errorf("empty payload")
	}
	return convertToJSONCompatible(v), nil
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible turns YAML-decoded values into the shapes JSON
// decoding produces: string-keyed maps and float64 numbers.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case map[any]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[fmt.Sprint(k)] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	default:
		return val
	}
}
