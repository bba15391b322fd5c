// internal/models/submission.go
package models

// Field names as they appear in raw form input and JSON payloads.
const (
	FieldFullName    = "fullName"
	FieldSociety     = "society"
	FieldEmail       = "email"
	FieldPhoneNumber = "phoneNumber"
	FieldMessage     = "message"
	FieldWebsite     = "website"
	FieldConsent     = "consent"
)

// SubmissionFields lists every field of the contact form in display order.
var SubmissionFields = []string{
	FieldFullName,
	FieldSociety,
	FieldEmail,
	FieldPhoneNumber,
	FieldWebsite,
	FieldMessage,
	FieldConsent,
}

// Submission is one validated contact-form payload. It lives for a single
// request and is never stored.
type Submission struct {
	FullName    string `json:"fullName"`
	Society     string `json:"society,omitempty"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Message     string `json:"message"`
	Website     string `json:"website,omitempty"`
	Consent     bool   `json:"consent"`
}

// ToRaw converts the submission back into the raw field map accepted by the
// validator. Empty optional fields are left out.
func (s Submission) ToRaw() map[string]interface{} {
	raw := map[string]interface{}{
		FieldFullName: s.FullName,
		FieldEmail:    s.Email,
		FieldMessage:  s.Message,
		FieldConsent:  s.Consent,
	}
	if s.Society != "" {
		raw[FieldSociety] = s.Society
	}
	if s.PhoneNumber != "" {
		raw[FieldPhoneNumber] = s.PhoneNumber
	}
	if s.Website != "" {
		raw[FieldWebsite] = s.Website
	}
	return raw
}
