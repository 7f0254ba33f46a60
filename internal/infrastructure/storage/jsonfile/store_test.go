package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/testutil"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(&Config{DatasetDir: t.TempDir()}, testutil.NewMockLogger())
	require.NoError(t, err)
	return store
}

func TestNewStore_Validation(t *testing.T) {
	_, err := NewStore(&Config{}, nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	store, err := NewStore(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().DatasetDir, store.DatasetDir())
}

func TestRecords(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	raw := `[
		{"uid": 1, "question": "Who directed Inception?", "sparql_wikidata": "SELECT ?x WHERE { wd:Q25188 wdt:P57 ?x }"},
		{"uid": 2, "question": null, "NNQT_question": "What is {A}?", "sparql_wikidata": ""}
	]`
	require.NoError(t, os.WriteFile(store.SplitPath(dataset.SplitTrain), []byte(raw), 0o644))

	records, err := store.Records(ctx, dataset.SplitTrain)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].UID)
	assert.Equal(t, []string{"P57", "Q25188"}, records[0].WikidataSymbols())
	assert.Equal(t, "", string(records[1].Question))
}

func TestRecords_MissingFile(t *testing.T) {
	store := newTestStore(t)
	_, err := store.Records(context.Background(), dataset.SplitTest)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStorageReadFailed))
}

func TestRecords_MalformedJSON(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(store.SplitPath(dataset.SplitTrain), []byte(`{"not": "an array"}`), 0o644))

	_, err := store.Records(context.Background(), dataset.SplitTrain)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStorageMalformedJSON))
}

func TestSymbolsMap_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := map[string][]string{
		"19719": {"P2813", "P31", "Q1002697", "Q188920"},
		"7":     {"Q42"},
	}
	require.NoError(t, store.SaveSymbolsMap(ctx, dataset.SplitTrain, in))

	out, err := store.SymbolsMap(ctx, dataset.SplitTrain)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// Supplements live in their own subdirectory.
	assert.Equal(t, SupplementsDir, filepath.Base(filepath.Dir(store.SymbolsMapPath(dataset.SplitTrain))))
}

func TestSaveJSON_DeterministicEncoding(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	m := map[string]string{"b": "2", "a": "1", "c": "3"}
	require.NoError(t, store.SaveStringMap(ctx, "determinism.json", m))
	first, err := os.ReadFile(store.resolve("determinism.json"))
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveStringMap(ctx, "determinism.json", m))
		again, err := os.ReadFile(store.resolve("determinism.json"))
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMaskedPairs_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	in := map[string]dataset.MaskedPair{
		"1": {Q: "Who directed Q0?", A: "SELECT ?x WHERE { Q0 P0 ?x }"},
	}
	require.NoError(t, store.SaveMaskedPairs(ctx, "train-nl-masked.json", in))

	out, err := store.MaskedPairs(ctx, "train-nl-masked.json")
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveLines(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveLines(ctx, "train-nl.txt", []string{"first line", "second line"}))

	data, err := os.ReadFile(filepath.Join(store.DatasetDir(), FinalisedDir, "train-nl.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line\n", string(data))
}

func TestSaveLines_Empty(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.SaveLines(context.Background(), "empty.txt", nil))

	data, err := os.ReadFile(filepath.Join(store.DatasetDir(), FinalisedDir, "empty.txt"))
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestLabelStore_ResumableMerge(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	ls, err := NewLabelStore(store, dataset.SplitTrain, dataset.LanguageDutch)
	require.NoError(t, err)

	// A fresh repository has everything missing.
	missing, err := ls.Missing(ctx, []string{"Q2", "Q1", "P5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"P5", "Q1", "Q2"}, missing)

	require.NoError(t, ls.Store(ctx, labels.SymbolLabels{
		"Q1": {"universum", "heelal"},
		"P5": {"relatie"},
	}))

	missing, err = ls.Missing(ctx, []string{"Q2", "Q1", "P5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Q2"}, missing)

	// A second pass appends and overwrites per key.
	require.NoError(t, ls.Store(ctx, labels.SymbolLabels{
		"Q2": {"aarde"},
		"Q1": {"universum"},
	}))

	got, err := ls.LabelsFor(ctx, []string{"Q1", "Q2", "P5", "Q404"})
	require.NoError(t, err)
	assert.Equal(t, []string{"universum"}, got["Q1"])
	assert.Equal(t, []string{"aarde"}, got["Q2"])
	assert.Equal(t, []string{"relatie"}, got["P5"])
	value, present := got["Q404"]
	assert.True(t, present)
	assert.Nil(t, value)
}

func TestLabelStore_Validation(t *testing.T) {
	store := newTestStore(t)

	_, err := NewLabelStore(nil, dataset.SplitTrain, dataset.LanguageDutch)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = NewLabelStore(store, dataset.Split("dev"), dataset.LanguageDutch)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetUnknownSplit))

	_, err = NewLabelStore(store, dataset.SplitTrain, dataset.Language("xx"))
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetUnknownLanguage))
}

func TestLabelStore_MalformedFile(t *testing.T) {
	store := newTestStore(t)
	ls, err := NewLabelStore(store, dataset.SplitTest, dataset.LanguageEnglish)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Dir(ls.Path()), 0o755))
	require.NoError(t, os.WriteFile(ls.Path(), []byte("not json"), 0o644))

	_, err = ls.LabelsFor(context.Background(), []string{"Q1"})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeStorageMalformedJSON))
}
