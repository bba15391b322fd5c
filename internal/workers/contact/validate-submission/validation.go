package validatesubmission

import (
	"github.com/emmanuel-sarpedon/contact-form/internal/common/validation"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

// ConsentMessage is shown whenever the consent box is not ticked.
const ConsentMessage = "Vous devez accepter la collecte de vos données personnelles"

// GetInputSchema returns the acceptance rules of a contact submission.
func GetInputSchema() validation.JSONSchema {
	return validation.JSONSchema{
		Type:     "object",
		Required: []string{models.FieldFullName, models.FieldEmail, models.FieldMessage, models.FieldConsent},
		Order:    models.SubmissionFields,
		Properties: map[string]validation.Property{
			models.FieldFullName: {
				Type:        "string",
				Title:       "Nom Prénom",
				Description: "Full name of the visitor",
				MinLength:   intPtr(2),
			},
			models.FieldSociety: {
				Type:        "string",
				Title:       "Entreprise",
				Description: "Company name",
				MinLength:   intPtr(2),
			},
			models.FieldEmail: {
				Type:        "string",
				Title:       "Email",
				Description: "Reply address",
				Format:      validation.FormatEmail,
			},
			models.FieldPhoneNumber: {
				Type:        "string",
				Title:       "N° de téléphone",
				Description: "Phone number",
				MinLength:   intPtr(10),
			},
			models.FieldWebsite: {
				Type:        "string",
				Title:       "Site internet",
				Description: "Current website, free-form",
			},
			models.FieldMessage: {
				Type:        "string",
				Title:       "Message",
				Description: "Veuillez décrire votre projet en quelques lignes",
				MinLength:   intPtr(10),
			},
			models.FieldConsent: {
				Type:        "boolean",
				Description: "Consent to personal data collection",
				Const:       true,
				Message:     ConsentMessage,
			},
		},
		AdditionalProperties: true,
	}
}

func intPtr(i int) *int {
	return &i
}
