package validatesubmission

import (
	"github.com/emmanuel-sarpedon/contact-form/internal/common/validation"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

var schema = GetInputSchema()

// Validate checks raw form input and returns either the trimmed submission or
// one violation per offending field. It has no side effects.
func Validate(raw map[string]interface{}) (*models.Submission, []models.FieldViolation) {
	result := validation.ValidateInput(raw, schema)
	if !result.Valid {
		return nil, toViolations(result.Errors)
	}

	return &models.Submission{
		FullName:    stringValue(result.Values, models.FieldFullName),
		Society:     stringValue(result.Values, models.FieldSociety),
		Email:       stringValue(result.Values, models.FieldEmail),
		PhoneNumber: stringValue(result.Values, models.FieldPhoneNumber),
		Message:     stringValue(result.Values, models.FieldMessage),
		Website:     stringValue(result.Values, models.FieldWebsite),
		Consent:     true,
	}, nil
}

// ValidateFields checks only the fields present in raw, for blur/change
// feedback on a form that is still being filled.
func ValidateFields(raw map[string]interface{}) []models.FieldViolation {
	result := validation.ValidateInput(raw, schema)
	violations := make([]models.FieldViolation, 0, len(result.Errors))
	for _, v := range toViolations(result.Errors) {
		if _, touched := raw[v.Field]; touched {
			violations = append(violations, v)
		}
	}
	return violations
}

// SchemaJSON returns the rules as JSON for client-side binding.
func SchemaJSON() ([]byte, error) {
	return schema.ToJSON()
}

func toViolations(errs []validation.ValidationError) []models.FieldViolation {
	violations := make([]models.FieldViolation, len(errs))
	for i, e := range errs {
		violations[i] = models.FieldViolation{Field: e.Field, Code: e.Code, Message: e.Message}
	}
	return violations
}

func stringValue(values map[string]interface{}, field string) string {
	s, _ := values[field].(string)
	return s
}
