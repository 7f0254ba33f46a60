package replace

import "strings"

// characterEntities maps the HTML character entities commonly found in
// machine-translated text to their referents. The table follows the W3C's
// list of common typographic entities.
var characterEntities = map[string]string{
	"&quot;":   "\"",
	"&amp;":    "&",
	"&cent;":   "¢",
	"&pound;":  "£",
	"&sect;":   "§",
	"&copy;":   "©",
	"&laquo;":  "«",
	"&raquo;":  "»",
	"&reg;":    "®",
	"&deg;":    "°",
	"&plusmn;": "±",
	"&para;":   "¶",
	"&middot;": "·",
	"&frac12;": "½",
	"&ndash;":  "–",
	"&mdash;":  "—",
	"&lsquo;":  "‘",
	"&rsquo;":  "’",
	"&sbquo;":  "‚",
	"&ldquo;":  "“",
	"&rdquo;":  "”",
	"&bdquo;":  "„",
	"&dagger;": "†",
	"&bull;":   "•",
	"&hellip;": "…",
	"&prime;":  "′",
	"&euro;":   "€",
	"&trade;":  "™",
	"&asymp;":  "≈",
	"&ne;":     "≠",
	"&le;":     "≤",
	"&ge;":     "≥",
	"&lt;":     "<",
	"&gt;":     ">",
}

// symbolReplacer performs the SPARQL template cleanups: underscores become
// spaces, braces disappear.
var symbolReplacer = strings.NewReplacer("_", " ", "{", "", "}", "")

// replaceSpecialSymbols applies the template symbol substitutions.
func replaceSpecialSymbols(s string) string {
	return symbolReplacer.Replace(s)
}

// decodeHTMLEntities replaces character entities from the fixed table and
// numeric entities with code points 0 through 255 by their referents. Other
// entity-like text is left untouched. Replacements are never re-scanned.
func decodeHTMLEntities(s string) string {
	if !strings.ContainsRune(s, '&') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		if s[i] != '&' {
			b.WriteByte(s[i])
			i++
			continue
		}
		if referent, length, ok := parseEntity(s[i:]); ok {
			b.WriteString(referent)
			i += length
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// parseEntity tries to read one entity at the start of s. It reports the
// replacement text and the byte length of the entity.
func parseEntity(s string) (string, int, bool) {
	if len(s) < 3 || s[0] != '&' {
		return "", 0, false
	}
	if s[1] == '#' {
		return parseNumericEntity(s)
	}
	end := 1
	for end < len(s) && s[end] >= 'a' && s[end] <= 'z' {
		end++
	}
	if end == 1 || end >= len(s) || s[end] != ';' {
		return "", 0, false
	}
	entity := s[:end+1]
	referent, ok := characterEntities[entity]
	if !ok {
		return "", 0, false
	}
	return referent, len(entity), true
}

// parseNumericEntity reads an "&#NNNN;" entity of one to four digits.
// Code points above 255 are not decoded.
func parseNumericEntity(s string) (string, int, bool) {
	end := 2
	code := 0
	for end < len(s) && end < 6 && s[end] >= '0' && s[end] <= '9' {
		code = code*10 + int(s[end]-'0')
		end++
	}
	if end == 2 || end >= len(s) || s[end] != ';' {
		return "", 0, false
	}
	if code > 255 {
		return "", 0, false
	}
	return string(rune(code)), end + 1, true
}
