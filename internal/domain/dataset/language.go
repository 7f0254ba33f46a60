package dataset

import (
	"golang.org/x/text/language"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// Language is an ISO 639-1 code for a natural language the pipeline can
// produce.  Labels are retrieved from WikiData and datasets are written in
// exactly one language per run.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageDutch   Language = "nl"
)

// ParseLanguage resolves a BCP 47 language tag to a supported pipeline
// language.  Region and script subtags are tolerated, so "nl-NL" and
// "en-GB" resolve like their base languages.
func ParseLanguage(s string) (Language, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeDatasetUnknownLanguage,
			"language tag does not parse").WithDetailf("language=%q", s)
	}
	base, conf := tag.Base()
	if conf == language.No {
		return "", errors.New(errors.ErrCodeDatasetUnknownLanguage,
			"language tag carries no base language").WithDetailf("language=%q", s)
	}
	switch base.String() {
	case "en":
		return LanguageEnglish, nil
	case "nl":
		return LanguageDutch, nil
	default:
		return "", errors.New(errors.ErrCodeDatasetUnknownLanguage,
			"language is not supported by the pipeline").
			WithDetailf("language=%q supported=[en nl]", s)
	}
}

func (l Language) String() string {
	return string(l)
}

// Valid reports whether l is one of the supported languages.
func (l Language) Valid() bool {
	return l == LanguageEnglish || l == LanguageDutch
}
