package model

import "strings"

// Language is the highlighting tag attached to a snippet.
//
// It is a closed set: the form only offers these values and the API rejects
// anything else. The tag carries no meaning beyond picking a grammar.
type Language string

const (
	Text       Language = "text"
	JavaScript Language = "javascript"
	Python     Language = "python"
	Java       Language = "java"
	CSharp     Language = "csharp"
	PHP        Language = "php"
)

// DefaultLanguage is preselected in a fresh submission form.
const DefaultLanguage = JavaScript

var languageLabels = map[Language]string{
	Text:       "Text",
	JavaScript: "JavaScript",
	Python:     "Python",
	Java:       "Java",
	CSharp:     "C#",
	PHP:        "PHP",
}

// Languages returns every supported language in the order the form lists them.
func Languages() []Language {
	return []Language{Text, JavaScript, Python, Java, CSharp, PHP}
}

// ParseLanguage normalises a raw tag ("  Python " → Python).
// The boolean is false when the tag is not one of the supported languages.
func ParseLanguage(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Valid()
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	_, ok := languageLabels[l]
	return ok
}

// Label is the human-readable name shown in the language picker.
func (l Language) Label() string {
	if label, ok := languageLabels[l]; ok {
		return label
	}
	return string(l)
}

func (l Language) String() string {
	return string(l)
}
