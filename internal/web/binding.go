package web

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

const formIDField = "formId"

// bindForm reads a form-encoded submission into the raw field map accepted by
// the validator. Text fields missing from the request are left out.
func bindForm(c *gin.Context) (string, map[string]interface{}) {
	raw := make(map[string]interface{}, len(models.SubmissionFields))
	for _, field := range models.SubmissionFields {
		if field == models.FieldConsent {
			continue
		}
		if value, ok := c.GetPostForm(field); ok {
			raw[field] = value
		}
	}
	raw[models.FieldConsent] = parseConsent(c.PostForm(models.FieldConsent))
	return strings.TrimSpace(c.PostForm(formIDField)), raw
}

// bindJSON splits a decoded JSON body into the form instance id and the raw
// fields. Unknown keys are dropped.
func bindJSON(body map[string]interface{}) (string, map[string]interface{}) {
	formID, _ := body[formIDField].(string)
	raw := make(map[string]interface{}, len(models.SubmissionFields))
	for _, field := range models.SubmissionFields {
		if value, ok := body[field]; ok {
			raw[field] = value
		}
	}
	return strings.TrimSpace(formID), raw
}

// parseConsent maps checkbox values to a boolean. Browsers send "on" for a
// checked box without an explicit value.
func parseConsent(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "on", "true", "1":
		return true
	}
	return false
}
