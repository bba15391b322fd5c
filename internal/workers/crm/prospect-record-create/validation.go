package prospectrecordcreate

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/emmanuel-sarpedon/contact-form/internal/common/notion"
)

const payloadSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["Nom complet", "Email", "Message", "Etat"],
  "additionalProperties": false,
  "definitions": {
    "text": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["type", "text"],
        "properties": {
          "type": {"const": "text"},
          "text": {
            "type": "object",
            "required": ["content"],
            "properties": {"content": {"type": "string", "minLength": 1, "maxLength": 2000}}
          }
        }
      }
    },
    "nonEmpty": {"type": "string", "minLength": 1}
  },
  "properties": {
    "Nom complet": {"type": "object", "required": ["title"], "properties": {"title": {"$ref": "#/definitions/text"}}},
    "Entreprise": {"type": "object", "required": ["rich_text"], "properties": {"rich_text": {"$ref": "#/definitions/text"}}},
    "Email": {"type": "object", "required": ["email"], "properties": {"email": {"$ref": "#/definitions/nonEmpty"}}},
    "Telephone": {"type": "object", "required": ["phone_number"], "properties": {"phone_number": {"$ref": "#/definitions/nonEmpty"}}},
    "Message": {"type": "object", "required": ["rich_text"], "properties": {"rich_text": {"$ref": "#/definitions/text"}}},
    "Site internet": {"type": "object", "required": ["url"], "properties": {"url": {"$ref": "#/definitions/nonEmpty"}}},
    "Etat": {
      "type": "object",
      "required": ["select"],
      "properties": {
        "select": {"type": "object", "required": ["name"], "properties": {"name": {"const": "A contacter"}}}
      }
    }
  }
}`

var payloadSchema = mustCompileSchema(payloadSchemaJSON)

func mustCompileSchema(schemaJSON string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		panic(fmt.Sprintf("invalid payload schema: %v", err))
	}
	return schema
}

// ValidatePayload checks record properties against the prospects database
// layout before they are sent.
func ValidatePayload(props notion.Properties) error {
	result, err := payloadSchema.Validate(gojsonschema.NewGoLoader(props))
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("payload validation failed: %v", errs)
	}

	return nil
}
