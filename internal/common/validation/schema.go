package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// Violation codes.
const (
	CodeRequiredFieldMissing = "REQUIRED_FIELD_MISSING"
	CodeInvalidType          = "INVALID_TYPE"
	CodeMinLength            = "MIN_LENGTH_VIOLATION"
	CodeMaxLength            = "MAX_LENGTH_VIOLATION"
	CodePatternMismatch      = "PATTERN_MISMATCH"
	CodeInvalidEnumValue     = "INVALID_ENUM_VALUE"
	CodeInvalidFormat        = "INVALID_FORMAT"
	CodeConstMismatch        = "CONST_MISMATCH"
	CodeExtraField           = "EXTRA_FIELD"
)

// FormatEmail is the only string format understood by the engine.
const FormatEmail = "email"

var validate = validator.New()

// JSONSchema defines the structure for input schemas. Order lists the
// properties in evaluation and display order; properties missing from it are
// evaluated afterwards in no particular order.
type JSONSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required,omitempty"`
	AdditionalProperties bool                `json:"additionalProperties"`
	Order                []string            `json:"x-order,omitempty"`
}

type Property struct {
	Type        string      `json:"type"`
	Description string      `json:"description,omitempty"`
	Title       string      `json:"title,omitempty"`
	Enum        []string    `json:"enum,omitempty"`
	Pattern     *string     `json:"pattern,omitempty"`
	MinLength   *int        `json:"minLength,omitempty"`
	MaxLength   *int        `json:"maxLength,omitempty"`
	Format      string      `json:"format,omitempty"`
	Const       interface{} `json:"const,omitempty"`
	// Message replaces the generated message of every violation on this property.
	Message string `json:"errorMessage,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
	// Values holds the accepted input: strings trimmed, empty values removed.
	Values map[string]interface{} `json:"-"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidateInput validates input against the schema. Strings are trimmed
// before any rule runs and lengths are counted in characters. A value that is
// nil or blank counts as absent. Each field yields at most one error: the
// first failing rule.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	errors := []ValidationError{}
	values := make(map[string]interface{}, len(input))

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	for _, fieldName := range fieldOrder(schema) {
		prop := schema.Properties[fieldName]
		value, present := normalize(input[fieldName])

		if !present {
			if required[fieldName] {
				errors = append(errors, newError(fieldName, prop, CodeRequiredFieldMissing, "required field missing"))
			}
			continue
		}

		if fieldErr := validateField(fieldName, value, prop); fieldErr != nil {
			errors = append(errors, *fieldErr)
			continue
		}
		values[fieldName] = value
	}

	for fieldName, raw := range input {
		if _, known := schema.Properties[fieldName]; known {
			continue
		}
		if !schema.AdditionalProperties {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Message: "field not allowed in schema",
				Code:    CodeExtraField,
			})
			continue
		}
		if value, present := normalize(raw); present {
			values[fieldName] = value
		}
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
		Values: values,
	}
}

func fieldOrder(schema JSONSchema) []string {
	seen := make(map[string]bool, len(schema.Properties))
	order := make([]string, 0, len(schema.Properties))
	for _, name := range schema.Order {
		if _, ok := schema.Properties[name]; ok && !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	for name := range schema.Properties {
		if !seen[name] {
			order = append(order, name)
		}
	}
	return order
}

func normalize(value interface{}) (interface{}, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, false
		}
		return trimmed, true
	default:
		return value, true
	}
}

func newError(fieldName string, prop Property, code, message string) ValidationError {
	if prop.Message != "" {
		message = prop.Message
	}
	return ValidationError{Field: fieldName, Message: message, Code: code}
}

func validateField(fieldName string, value interface{}, prop Property) *ValidationError {
	if typeErr := validateType(value, prop.Type); typeErr != nil {
		err := newError(fieldName, prop, CodeInvalidType, typeErr.Error())
		return &err
	}

	if strVal, ok := value.(string); ok {
		length := utf8.RuneCountInString(strVal)
		if prop.MinLength != nil && length < *prop.MinLength {
			err := newError(fieldName, prop, CodeMinLength, fmt.Sprintf("value must be at least %d characters", *prop.MinLength))
			return &err
		}
		if prop.MaxLength != nil && length > *prop.MaxLength {
			err := newError(fieldName, prop, CodeMaxLength, fmt.Sprintf("value must be at most %d characters", *prop.MaxLength))
			return &err
		}

		if prop.Pattern != nil {
			matched, matchErr := regexp.MatchString(*prop.Pattern, strVal)
			if matchErr != nil || !matched {
				err := newError(fieldName, prop, CodePatternMismatch, fmt.Sprintf("value must match pattern %s", *prop.Pattern))
				return &err
			}
		}

		if prop.Format == FormatEmail && !ValidateEmail(strVal) {
			err := newError(fieldName, prop, CodeInvalidFormat, "value must be a valid email address")
			return &err
		}

		if len(prop.Enum) > 0 {
			found := false
			for _, enumVal := range prop.Enum {
				if strVal == enumVal {
					found = true
					break
				}
			}
			if !found {
				err := newError(fieldName, prop, CodeInvalidEnumValue, fmt.Sprintf("value must be one of %v", prop.Enum))
				return &err
			}
		}
	}

	if prop.Const != nil && value != prop.Const {
		err := newError(fieldName, prop, CodeConstMismatch, fmt.Sprintf("value must be %v", prop.Const))
		return &err
	}

	return nil
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		switch value.(type) {
		case float64, int, int32, int64:
		default:
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		switch value.(type) {
		case int, int32, int64:
		default:
			return fmt.Errorf("expected integer, got %T", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	}
	return nil
}

// ToJSON renders the schema for client-side binding.
func (s JSONSchema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}

// GetSchemaFromJSON parses JSON schema from string
func GetSchemaFromJSON(schemaJSON string) (JSONSchema, error) {
	var schema JSONSchema
	err := json.Unmarshal([]byte(schemaJSON), &schema)
	return schema, err
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// ValidateEmail validates email syntax.
func ValidateEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}
