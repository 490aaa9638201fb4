package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/xeipuuv/gojsonschema"
)

const (
	SchemaCatalog  = "catalog-snapshot"
	SchemaFeatures = "features-snapshot"
	SchemaScores   = "scores-snapshot"
)

// Snapshot documents are keyed by item id, so every schema constrains the
// values of a single top-level object.
var snapshotSchemas = map[string]string{
	SchemaCatalog: `{
		"type": "object",
		"propertyNames": {"pattern": "^-?[0-9]+$"},
		"additionalProperties": {
			"type": "object",
			"required": ["title"],
			"properties": {
				"id": {"type": "number"},
				"title": {"type": "string"},
				"original_title": {"type": ["string", "null"]},
				"release_date": {"type": ["string", "null"]},
				"vote_count": {"type": "number", "minimum": 0},
				"vote_average": {"type": "number", "minimum": 0, "maximum": 10},
				"popularity": {"type": "number", "minimum": 0},
				"genres": {
					"type": ["array", "null"],
					"items": {
						"anyOf": [
							{"type": "string"},
							{"type": "object", "required": ["name"], "properties": {"name": {"type": "string"}}}
						]
					}
				}
			}
		}
	}`,
	SchemaFeatures: `{
		"type": "object",
		"propertyNames": {"pattern": "^-?[0-9]+(\\.0+)?$"},
		"additionalProperties": {"type": "array", "items": {"type": "number"}}
	}`,
	SchemaScores: `{
		"type": "object",
		"propertyNames": {"pattern": "^-?[0-9]+(\\.0+)?$"},
		"additionalProperties": {
			"type": "array",
			"items": {"type": "array", "items": {"type": "number"}}
		}
	}`,
}

// SchemaValidator validates offline snapshot documents against JSON schemas
// and request bodies against struct tags.
type SchemaValidator struct {
	schemas  map[string]*gojsonschema.Schema
	validate *validator.Validate
}

// NewSchemaValidator compiles the built-in snapshot schemas.
func NewSchemaValidator() (*SchemaValidator, error) {
	sv := &SchemaValidator{
		schemas:  make(map[string]*gojsonschema.Schema, len(snapshotSchemas)),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	for name, source := range snapshotSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
		if err != nil {
			return nil, fmt.Errorf("failed to load schema %s: %w", name, err)
		}
		sv.schemas[name] = schema
	}

	return sv, nil
}

// ValidateDocument validates a raw JSON document against a named schema.
func (sv *SchemaValidator) ValidateDocument(schemaName string, document []byte) *ValidationResult {
	schema, exists := sv.schemas[schemaName]
	if !exists {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "schema",
				Message: fmt.Sprintf("Schema '%s' not found", schemaName),
				Code:    "SCHEMA_NOT_FOUND",
			}},
		}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "document",
				Message: fmt.Sprintf("Validation error: %v", err),
				Code:    "VALIDATION_ERROR",
			}},
		}
	}

	validationResult := &ValidationResult{
		Valid:  result.Valid(),
		Errors: make([]ValidationError, 0),
	}

	if !result.Valid() {
		for _, err := range result.Errors() {
			validationResult.Errors = append(validationResult.Errors, ValidationError{
				Field:   err.Field(),
				Message: err.Description(),
				Code:    "VALIDATION_ERROR",
				Context: err.Context().String(),
			})
		}
	}

	return validationResult
}

// ValidateStruct checks a request body against its `validate` tags.
func (sv *SchemaValidator) ValidateStruct(data interface{}) *ValidationResult {
	err := sv.validate.Struct(data)
	if err == nil {
		return &ValidationResult{Valid: true}
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "body",
				Message: err.Error(),
				Code:    "VALIDATION_ERROR",
			}},
		}
	}

	result := &ValidationResult{Valid: false}
	for _, fe := range fieldErrors {
		result.Errors = append(result.Errors, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: fmt.Sprintf("failed '%s' constraint", fe.Tag()),
			Code:    "VALIDATION_ERROR",
			Value:   fe.Value(),
		})
	}
	return result
}

// ValidationResult represents the result of a validation operation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Code    string      `json:"code"`
	Value   interface{} `json:"value,omitempty"`
	Context string      `json:"context,omitempty"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", ve.Field, ve.Message)
}

// Err folds the result into a single error, or nil when valid. At most the
// first five problems are listed.
func (vr *ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}
	msgs := make([]string, 0, 5)
	for i, e := range vr.Errors {
		if i == 5 {
			msgs = append(msgs, fmt.Sprintf("and %d more", len(vr.Errors)-5))
			break
		}
		msgs = append(msgs, e.Error())
	}
	return fmt.Errorf("invalid document: %s", strings.Join(msgs, "; "))
}

// ToAPIError converts validation errors to API error format
func (vr *ValidationResult) ToAPIError() map[string]interface{} {
	if vr.Valid {
		return nil
	}

	fieldErrors := make(map[string][]string)
	for _, err := range vr.Errors {
		if err.Field != "" {
			fieldErrors[err.Field] = append(fieldErrors[err.Field], err.Message)
		}
	}

	return map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "VALIDATION_ERROR",
			"message": "Request validation failed",
			"details": map[string]interface{}{
				"validationErrors": vr.Errors,
				"fieldErrors":      fieldErrors,
			},
		},
	}
}
