package notion

import "unicode/utf8"

// MaxTextLength is the per-object character limit of rich text content.
const MaxTextLength = 2000

// Properties maps database column names to page property values.
type Properties map[string]Property

// Property holds exactly one typed value.
type Property struct {
	Title       []RichText    `json:"title,omitempty"`
	RichText    []RichText    `json:"rich_text,omitempty"`
	Email       *string       `json:"email,omitempty"`
	PhoneNumber *string       `json:"phone_number,omitempty"`
	URL         *string       `json:"url,omitempty"`
	Select      *SelectOption `json:"select,omitempty"`
}

type RichText struct {
	Type string      `json:"type"`
	Text TextContent `json:"text"`
}

type TextContent struct {
	Content string `json:"content"`
}

type SelectOption struct {
	Name string `json:"name"`
}

func TitleProperty(s string) Property {
	return Property{Title: TextChunks(s)}
}

func RichTextProperty(s string) Property {
	return Property{RichText: TextChunks(s)}
}

func EmailProperty(s string) Property {
	return Property{Email: &s}
}

func PhoneNumberProperty(s string) Property {
	return Property{PhoneNumber: &s}
}

func URLProperty(s string) Property {
	return Property{URL: &s}
}

func SelectProperty(name string) Property {
	return Property{Select: &SelectOption{Name: name}}
}

// TextChunks splits s into text objects of at most MaxTextLength characters.
func TextChunks(s string) []RichText {
	if s == "" {
		return []RichText{}
	}
	chunks := make([]RichText, 0, utf8.RuneCountInString(s)/MaxTextLength+1)
	for len(s) > 0 {
		end, count := 0, 0
		for end < len(s) && count < MaxTextLength {
			_, size := utf8.DecodeRuneInString(s[end:])
			end += size
			count++
		}
		chunks = append(chunks, RichText{Type: "text", Text: TextContent{Content: s[:end]}})
		s = s[end:]
	}
	return chunks
}
