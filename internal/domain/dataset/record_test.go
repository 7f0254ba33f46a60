package dataset

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseSplit(t *testing.T) {
	for _, name := range []string{"train", "test"} {
		s, err := ParseSplit(name)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", name, err)
		}
		if s.String() != name {
			t.Errorf("expected %q, got %q", name, s)
		}
		if !s.Valid() {
			t.Errorf("expected %q to be valid", name)
		}
	}

	if _, err := ParseSplit("validation"); err == nil {
		t.Error("expected error for unknown split")
	}
	if Split("dev").Valid() {
		t.Error("expected dev to be invalid")
	}
}

func TestParseLanguage(t *testing.T) {
	cases := map[string]Language{
		"en":    LanguageEnglish,
		"nl":    LanguageDutch,
		"en-GB": LanguageEnglish,
		"nl-NL": LanguageDutch,
	}
	for in, want := range cases {
		got, err := ParseLanguage(in)
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", in, err)
		}
		if got != want {
			t.Errorf("ParseLanguage(%q) = %q, want %q", in, got, want)
		}
	}

	for _, in := range []string{"", "xx-klingon", "de"} {
		if _, err := ParseLanguage(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestRecordUnmarshal_FlexibleFields(t *testing.T) {
	raw := `{
		"NNQT_question": "What is {abc} of {def}?",
		"uid": 19719,
		"subgraph": "simple question right",
		"template_index": 65,
		"question": "What periodical literature does Delta Air Lines use as a mouthpiece?",
		"sparql_wikidata": " select distinct ?obj where { wd:Q188920 wdt:P2813 ?obj . ?obj wdt:P31 wd:Q1002697 } ",
		"sparql_dbpedia18": "",
		"template": " <S P ?O ; ?O instanceOf Type>",
		"answer": [],
		"template_id": 1,
		"paraphrased_question": []
	}`
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if r.UID != 19719 {
		t.Errorf("uid = %d", r.UID)
	}
	if r.ParaphrasedQuestion != "" {
		t.Errorf("expected empty paraphrase, got %q", r.ParaphrasedQuestion)
	}
	if r.Question == "" {
		t.Error("expected question to survive decoding")
	}

	var null Record
	if err := json.Unmarshal([]byte(`{"uid": 1, "question": null}`), &null); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if null.Question != "" {
		t.Errorf("expected null question to decode empty, got %q", null.Question)
	}
}

func TestTranslationQuestion(t *testing.T) {
	longQ := "What periodical literature does Delta Air Lines use?"
	longP := "Which periodical is the mouthpiece of Delta Air Lines?"

	cases := []struct {
		name string
		rec  Record
		want QuestionKind
		text string
	}{
		{
			name: "substantial question wins",
			rec:  Record{Question: FlexString(longQ), ParaphrasedQuestion: FlexString(longP), NNQTQuestion: "nnqt"},
			want: QuestionKindQuestion,
			text: longQ,
		},
		{
			name: "short question falls back to paraphrase",
			rec:  Record{Question: "short one", ParaphrasedQuestion: FlexString(longP), NNQTQuestion: "nnqt"},
			want: QuestionKindParaphrased,
			text: longP,
		},
		{
			name: "short paraphrase falls back to NNQT",
			rec:  Record{Question: "short", ParaphrasedQuestion: "also short", NNQTQuestion: "What is {A} of {B}?"},
			want: QuestionKindNNQT,
			text: "What is {A} of {B}?",
		},
		{
			name: "absent question and paraphrase",
			rec:  Record{NNQTQuestion: "nnqt only"},
			want: QuestionKindNNQT,
			text: "nnqt only",
		},
		{
			name: "boundary fifteen is not enough",
			rec:  Record{Question: "123456789012345", NNQTQuestion: "nnqt"},
			want: QuestionKindNNQT,
			text: "nnqt",
		},
		{
			name: "boundary sixteen is enough",
			rec:  Record{Question: "1234567890123456", NNQTQuestion: "nnqt"},
			want: QuestionKindQuestion,
			text: "1234567890123456",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, kind := tc.rec.TranslationQuestion()
			if kind != tc.want {
				t.Errorf("kind = %q, want %q", kind, tc.want)
			}
			if text != tc.text {
				t.Errorf("text = %q, want %q", text, tc.text)
			}
		})
	}
}

func TestWikidataSymbols(t *testing.T) {
	r := Record{
		SparqlWikidata: "select ?x where { wd:Q188920 wdt:P2813 ?x . ?x wdt:P31 wd:Q1002697 . wd:Q188920 wdt:P31 ?x }",
	}
	got := r.WikidataSymbols()
	want := []string{"P2813", "P31", "Q1002697", "Q188920"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("symbols = %v, want %v", got, want)
	}

	empty := Record{SparqlWikidata: "select ?x where { ?x ?y ?z }"}
	if n := len(empty.WikidataSymbols()); n != 0 {
		t.Errorf("expected no symbols, got %d", n)
	}
}

func TestIdentifierValidation(t *testing.T) {
	valid := []string{"Q1", "Q188920", "P31", "P2813"}
	for _, id := range valid {
		if !ValidIdentifier(id) {
			t.Errorf("expected %q to be valid", id)
		}
		if err := ValidateIdentifier(id); err != nil {
			t.Errorf("unexpected error for %q: %v", id, err)
		}
	}

	invalid := []string{"", "Q", "P", "q1", "X5", "Q12a", "wd:Q1", "Q-1"}
	for _, id := range invalid {
		if ValidIdentifier(id) {
			t.Errorf("expected %q to be invalid", id)
		}
		if err := ValidateIdentifier(id); err == nil {
			t.Errorf("expected error for %q", id)
		}
	}

	if !IsEntity("Q42") || IsEntity("P42") {
		t.Error("entity check misclassifies")
	}
	if !IsProperty("P42") || IsProperty("Q42") {
		t.Error("property check misclassifies")
	}
}
