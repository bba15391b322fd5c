package prospectrecordcreate

import (
	"github.com/emmanuel-sarpedon/contact-form/internal/common/notion"
	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

// Column names of the prospects database.
const (
	PropFullName    = "Nom complet"
	PropSociety     = "Entreprise"
	PropEmail       = "Email"
	PropPhoneNumber = "Telephone"
	PropMessage     = "Message"
	PropWebsite     = "Site internet"
	PropState       = "Etat"
)

// StateToContact is the categorical state set on every new prospect.
const StateToContact = "A contacter"

// BuildProperties maps a submission to record properties. Optional fields
// that are empty are omitted, never sent blank.
func BuildProperties(sub *models.Submission) notion.Properties {
	props := notion.Properties{
		PropFullName: notion.TitleProperty(sub.FullName),
		PropEmail:    notion.EmailProperty(sub.Email),
		PropMessage:  notion.RichTextProperty(sub.Message),
		PropState:    notion.SelectProperty(StateToContact),
	}
	if sub.Society != "" {
		props[PropSociety] = notion.RichTextProperty(sub.Society)
	}
	if sub.PhoneNumber != "" {
		props[PropPhoneNumber] = notion.PhoneNumberProperty(sub.PhoneNumber)
	}
	if sub.Website != "" {
		props[PropWebsite] = notion.URLProperty(sub.Website)
	}
	return props
}
