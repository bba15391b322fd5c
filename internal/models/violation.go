// internal/models/violation.go
package models

// FieldViolation is a field-tagged reason a raw input failed validation.
type FieldViolation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ViolationsByField indexes violations by field name for inline rendering.
func ViolationsByField(violations []FieldViolation) map[string]string {
	out := make(map[string]string, len(violations))
	for _, v := range violations {
		if _, exists := out[v.Field]; !exists {
			out[v.Field] = v.Message
		}
	}
	return out
}
