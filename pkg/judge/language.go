package judge

import (
	"fmt"
	"strings"
)

// Language identifies a submission language supported by the judge.
type Language string

// Supported languages. The set is closed: anything else is rejected before
// the execution service is contacted.
const (
	LanguageC          Language = "c"
	LanguageCPP        Language = "c++"
	LanguageJava       Language = "java"
	LanguageJavaScript Language = "javascript"
	LanguagePython     Language = "python"
	LanguageGo         Language = "go"
)

// languageIDs maps each supported language to the execution service's
// internal identifier.
var languageIDs = map[Language]int{
	LanguageC:          50,
	LanguageCPP:        54,
	LanguageJava:       62,
	LanguageJavaScript: 63,
	LanguagePython:     71,
	LanguageGo:         60,
}

// ParseLanguage normalizes a caller-supplied language tag into a supported
// Language. The wire tag "cpp" is translated to "c++", which is what the
// execution service calls the language.
func ParseLanguage(tag string) (Language, error) {
	normalized := strings.ToLower(strings.TrimSpace(tag))
	if normalized == "cpp" {
		normalized = string(LanguageCPP)
	}

	lang := Language(normalized)
	if _, ok := languageIDs[lang]; !ok {
		return "", fmt.Errorf("unsupported language %q", tag)
	}
	return lang, nil
}

// ID returns the execution service identifier for the language.
func (l Language) ID() int {
	return languageIDs[l]
}

// String implements fmt.Stringer.
func (l Language) String() string {
	return string(l)
}
