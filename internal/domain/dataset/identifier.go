package dataset

import (
	"regexp"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// identifierRe matches a complete WikiData identifier: the letter Q for
// entities or P for properties, followed by decimal digits.
var identifierRe = regexp.MustCompile(`^[QP][0-9]+$`)

// ValidIdentifier reports whether s is a well-formed WikiData identifier.
func ValidIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// ValidateIdentifier returns a classified error for malformed identifiers.
func ValidateIdentifier(s string) error {
	if !ValidIdentifier(s) {
		return errors.New(errors.ErrCodeLabelInvalidSymbol,
			"identifier must be Q or P followed by decimal digits").
			WithDetailf("identifier=%q", s)
	}
	return nil
}

// IsEntity reports whether the identifier names a WikiData entity (Q...).
func IsEntity(s string) bool {
	return ValidIdentifier(s) && s[0] == 'Q'
}

// IsProperty reports whether the identifier names a WikiData property (P...).
func IsProperty(s string) bool {
	return ValidIdentifier(s) && s[0] == 'P'
}
