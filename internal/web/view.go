package web

import (
	"fmt"

	"github.com/emmanuel-sarpedon/contact-form/internal/models"
)

// ConsentLabel is the text shown next to the consent checkbox.
const ConsentLabel = "J'accepte la collecte de mes données personnelles et d'être recontacté par email ou téléphone. Aucune information ne sera transmise à des tiers."

type fieldDef struct {
	Name     string
	Label    string
	Type     string
	Required bool
	Help     string
	Wide     bool
}

var fieldDefs = []fieldDef{
	{Name: models.FieldFullName, Label: "Nom Prénom", Type: "text", Required: true},
	{Name: models.FieldSociety, Label: "Entreprise", Type: "text"},
	{Name: models.FieldEmail, Label: "Email", Type: "email", Required: true},
	{Name: models.FieldPhoneNumber, Label: "N° de téléphone", Type: "tel"},
	{Name: models.FieldWebsite, Label: "Site internet", Type: "text"},
	{Name: models.FieldMessage, Label: "Message", Type: "textarea", Required: true, Help: "Veuillez décrire votre projet en quelques lignes", Wide: true},
}

type fieldView struct {
	fieldDef
	Value string
	Error string
}

type flashView struct {
	Level string
	Text  string
}

type formView struct {
	FormID         string
	Fields         []fieldView
	Consent        bool
	ConsentLabel   string
	ConsentError   string
	Flash          *flashView
	Disabled       bool
	Succeeded      bool
	LoadingMessage string
}

// newFormView builds the page model from raw input, violations and the
// state of the form instance.
func newFormView(formID string, raw map[string]interface{}, violations []models.FieldViolation, state models.SubmissionState, flash *flashView) formView {
	errs := models.ViolationsByField(violations)

	view := formView{
		FormID:       formID,
		Fields:       make([]fieldView, len(fieldDefs)),
		ConsentLabel: ConsentLabel,
		ConsentError: errs[models.FieldConsent],
		Flash:        flash,
		Disabled:     state.Locked(),
		Succeeded:    state == models.StateSucceeded,
	}
	for i, def := range fieldDefs {
		view.Fields[i] = fieldView{
			fieldDef: def,
			Value:    stringOf(raw[def.Name]),
			Error:    errs[def.Name],
		}
	}
	view.Consent, _ = raw[models.FieldConsent].(bool)
	return view
}

func stringOf(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	default:
		return fmt.Sprint(value)
	}
}

// flashFeedback keeps the last progress message of an attempt for rendering.
type flashFeedback struct {
	last *flashView
}

func (f *flashFeedback) Loading(message string) {
	f.last = &flashView{Level: "loading", Text: message}
}

func (f *flashFeedback) Success(message string) {
	f.last = &flashView{Level: "success", Text: message}
}

func (f *flashFeedback) Error(message string) {
	f.last = &flashView{Level: "error", Text: message}
}

// redirectNavigator records the history-replacing navigation requested by the
// pipeline so the handler can turn it into a response.
type redirectNavigator struct {
	url   string
	calls int
}

func (n *redirectNavigator) Replace(url string) {
	n.url = url
	n.calls++
}
