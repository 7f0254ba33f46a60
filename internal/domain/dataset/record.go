package dataset

import (
	"encoding/json"
	"regexp"
	"sort"
	"unicode/utf8"
)

// FlexString decodes a JSON value that is either a string, null, or an
// empty array.  LC-QuAD 2.0 uses [] and null interchangeably where a field
// is absent; both decode to the empty string.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}
	// Anything non-string (null, []) means the value is absent.
	*f = ""
	return nil
}

func (f FlexString) String() string {
	return string(f)
}

// Record is one LC-QuAD 2.0 question-answer entry as shipped in the
// train.json and test.json files.
type Record struct {
	NNQTQuestion        string          `json:"NNQT_question"`
	UID                 int             `json:"uid"`
	Subgraph            FlexString      `json:"subgraph"`
	TemplateIndex       int             `json:"template_index"`
	Question            FlexString      `json:"question"`
	SparqlWikidata      string          `json:"sparql_wikidata"`
	SparqlDBpedia18     string          `json:"sparql_dbpedia18"`
	Template            FlexString      `json:"template"`
	Answer              json.RawMessage `json:"answer"`
	TemplateID          json.RawMessage `json:"template_id"`
	ParaphrasedQuestion FlexString      `json:"paraphrased_question"`
}

// QuestionKind names the three question variants a record carries.
type QuestionKind string

const (
	QuestionKindQuestion    QuestionKind = "question"
	QuestionKindParaphrased QuestionKind = "paraphrased_question"
	QuestionKindNNQT        QuestionKind = "NNQT_question"
)

// TranslationQuestion picks the record's question text used for
// translation and masking.  The hand-corrected question wins when it is
// substantial (over 15 code points), the paraphrase when it is substantial
// (over 20), and the template-generated NNQT question otherwise.
func (r *Record) TranslationQuestion() (string, QuestionKind) {
	if q := string(r.Question); utf8.RuneCountInString(q) > 15 {
		return q, QuestionKindQuestion
	}
	if p := string(r.ParaphrasedQuestion); utf8.RuneCountInString(p) > 20 {
		return p, QuestionKindParaphrased
	}
	return r.NNQTQuestion, QuestionKindNNQT
}

// symbolRe matches WikiData entity and property identifiers inside a
// SPARQL formulation, such as Q185518 or P57.
var symbolRe = regexp.MustCompile(`[QP][0-9]+`)

// WikidataSymbols returns the distinct WikiData identifiers mentioned in
// the record's WikiData SPARQL formulation, in lexicographic order.
func (r *Record) WikidataSymbols() []string {
	seen := make(map[string]struct{})
	for _, sym := range symbolRe.FindAllString(r.SparqlWikidata, -1) {
		seen[sym] = struct{}{}
	}
	symbols := make([]string, 0, len(seen))
	for sym := range seen {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// QAPair couples a question text with its raw SPARQL answer, keyed by the
// record UID rendered as a decimal string.
type QAPair struct {
	UID      string `json:"uid"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MaskedPair is the masked counterpart persisted by the mask task.
type MaskedPair struct {
	Q string `json:"q"`
	A string `json:"a"`
}
