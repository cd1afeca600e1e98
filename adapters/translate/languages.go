package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supported lists the target languages accepted by name
var supported = []language.Tag{
	language.Afrikaans, language.Arabic, language.Bengali, language.Bulgarian,
	language.Catalan, language.Chinese, language.Croatian, language.Czech,
	language.Danish, language.Dutch, language.English, language.Estonian,
	language.Finnish, language.French, language.German, language.Greek,
	language.Gujarati, language.Hebrew, language.Hindi, language.Hungarian,
	language.Icelandic, language.Indonesian, language.Italian, language.Japanese,
	language.Kannada, language.Korean, language.Latvian, language.Lithuanian,
	language.Malay, language.Malayalam, language.Marathi, language.Nepali,
	language.Norwegian, language.Persian, language.Polish, language.Portuguese,
	language.Punjabi, language.Romanian, language.Russian, language.Serbian,
	language.Slovak, language.Slovenian, language.Spanish, language.Swahili,
	language.Swedish, language.Tamil, language.Telugu, language.Thai,
	language.Turkish, language.Ukrainian, language.Urdu, language.Vietnamese,
	language.Zulu,
}

var byName = buildNames()

func buildNames() map[string]string {
	names := make(map[string]string, len(supported)*2)
	english := display.English.Languages()
	for _, tag := range supported {
		code := tag.String()
		names[strings.ToLower(english.Name(tag))] = code
		names[strings.ToLower(display.Self.Name(tag))] = code
	}
	return names
}

// ResolveLanguage maps a spoken language name ("spanish", "español") or a
// language code ("es", "pt-BR") to the code the translation API expects.
func ResolveLanguage(target string) (string, error) {
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return "", fmt.Errorf("target language cannot be empty")
	}
	if code, ok := byName[target]; ok {
		return code, nil
	}
	tag, err := language.Parse(target)
	if err != nil {
		return "", fmt.Errorf("unsupported target language %q", target)
	}
	return tag.String(), nil
}
