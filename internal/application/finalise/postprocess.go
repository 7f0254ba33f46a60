package finalise

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	maskTokenRe       = regexp.MustCompile(`[pq][0-9]+`)
	namespacedMaskRe  = regexp.MustCompile(`([a-z]+:)([pq][0-9]+)`)
	sparqlVariableRe  = regexp.MustCompile(`\?[^ ]+`)
	duplicateSpacesRe = regexp.MustCompile(` {2,}`)
	trailingSpacesRe  = regexp.MustCompile(` +$`)
)

// postProcessQuestion normalises a masked natural language question into
// space-separated tokens: the question is lowercased, mask tokens and a
// trailing question mark become standalone words, and duplicate spaces
// collapse into one.
func postProcessQuestion(question string) string {
	question = strings.ToLower(question)
	question = maskTokenRe.ReplaceAllString(question, " $0 ")
	if strings.HasSuffix(question, "?") {
		question = question[:len(question)-1] + " ?"
	}
	return duplicateSpacesRe.ReplaceAllString(question, " ")
}

// postProcessAnswer normalises a masked SPARQL query into space-separated
// word-like tokens. Brackets and dots become named words so that sequence
// models need no special vocabulary for them, mask tokens lose their
// namespace prefixes, and variables are renamed var_1, var_2, ... in order
// of first appearance.
func postProcessAnswer(answer string) string {
	answer = strings.ToLower(answer)
	answer = strings.NewReplacer(
		"{", " brack_open ",
		"}", " brack_close ",
		"(", " attr_open ",
		")", " attr_close ",
		".", " sep_dot ",
		",", " , ",
	).Replace(answer)
	answer = namespacedMaskRe.ReplaceAllString(answer, "$2")
	answer = renameVariables(answer)
	answer = duplicateSpacesRe.ReplaceAllString(answer, " ")
	return trailingSpacesRe.ReplaceAllString(answer, "")
}

// renameVariables replaces every SPARQL variable with var_N, where N counts
// distinct variables from one in order of first appearance.
func renameVariables(answer string) string {
	numbers := make(map[string]int)
	return sparqlVariableRe.ReplaceAllStringFunc(answer, func(variable string) string {
		number, ok := numbers[variable]
		if !ok {
			number = len(numbers) + 1
			numbers[variable] = number
		}
		return "var_" + strconv.Itoa(number)
	})
}
