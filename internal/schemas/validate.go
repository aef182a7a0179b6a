// Package schemas validates fittrack documents against their JSON Schemas before they
// are written, on the client before a save and on the server before a store update.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed routine.schema.json
var routineSchema string

//go:embed profile.schema.json
var profileSchema string

// Names of the embedded schemas.
const (
	Routine = "routine"
	Profile = "profile"
)

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

// ValidationError represents a schema validation error with field paths
type ValidationError struct {
	Schema string
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString(ve.Schema)
	sb.WriteString(" validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself
type SchemaLoadError struct {
	Name    string
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load schema %s: %s: %v", e.Name, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load schema %s: %s", e.Name, e.Message)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

func compileAll() {
	compiled = make(map[string]*gojsonschema.Schema, 2)
	for name, src := range map[string]string{Routine: routineSchema, Profile: profileSchema} {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			compileErr = &SchemaLoadError{Name: name, Message: "invalid schema", Cause: err}
			return
		}
		compiled[name] = schema
	}
}

// ValidateBytes validates raw JSON against the named embedded schema.
func ValidateBytes(name string, document []byte) error {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return compileErr
	}
	schema, ok := compiled[name]
	if !ok {
		return &SchemaLoadError{Name: name, Message: "unknown schema"}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return fmt.Errorf("failed to read document for %s validation: %w", name, err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Schema: name,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// Validate marshals v and validates it against the named schema.
func Validate(name string, v any) error {
	document, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document for %s validation: %w", name, err)
	}
	return ValidateBytes(name, document)
}
