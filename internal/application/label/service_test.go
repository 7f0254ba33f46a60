package label

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/testutil"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

type mockSymbolMapSource struct {
	mock.Mock
}

func (m *mockSymbolMapSource) SymbolsMap(ctx context.Context, split dataset.Split) (map[string][]string, error) {
	args := m.Called(ctx, split)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]string), args.Error(1)
}

type mockLabelRepository struct {
	mock.Mock
}

func (m *mockLabelRepository) LabelsFor(ctx context.Context, symbols []string) (labels.SymbolLabels, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(labels.SymbolLabels), args.Error(1)
}

func (m *mockLabelRepository) Store(ctx context.Context, sl labels.SymbolLabels) error {
	args := m.Called(ctx, sl)
	return args.Error(0)
}

func (m *mockLabelRepository) Missing(ctx context.Context, symbols []string) ([]string, error) {
	args := m.Called(ctx, symbols)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type mockLabelSource struct {
	mock.Mock
}

func (m *mockLabelSource) FetchLabels(ctx context.Context, symbols []string, lang dataset.Language) (labels.SymbolLabels, error) {
	args := m.Called(ctx, symbols, lang)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(labels.SymbolLabels), args.Error(1)
}

func newLabelService(t *testing.T) (Service, *mockSymbolMapSource, *mockLabelRepository, *mockLabelSource) {
	t.Helper()
	symbols := new(mockSymbolMapSource)
	repo := new(mockLabelRepository)
	source := new(mockLabelSource)
	svc, err := NewService(symbols, repo, source, testutil.NewMockLogger())
	require.NoError(t, err)
	return svc, symbols, repo, source
}

func TestRun_PartitionsAndResumes(t *testing.T) {
	svc, symbols, repo, source := newLabelService(t)
	ctx := context.Background()

	symbols.On("SymbolsMap", mock.Anything, dataset.SplitTrain).Return(map[string][]string{
		"1": {"P31", "Q42"},
		"2": {"Q42", "Q5", "P106"},
		"3": {},
	}, nil)
	// Q42 has been labelled by an earlier, interrupted run.
	repo.On("Missing", mock.Anything, []string{"P106", "P31", "Q42", "Q5"}).
		Return([]string{"P106", "P31", "Q5"}, nil)

	first := labels.SymbolLabels{"P106": {"beroep"}, "P31": {"is een"}}
	second := labels.SymbolLabels{"Q5": {"mens"}}
	source.On("FetchLabels", mock.Anything, []string{"P106", "P31"}, dataset.LanguageDutch).Return(first, nil)
	source.On("FetchLabels", mock.Anything, []string{"Q5"}, dataset.LanguageDutch).Return(second, nil)
	repo.On("Store", mock.Anything, first).Return(nil)
	repo.On("Store", mock.Anything, second).Return(nil)

	result, err := svc.Run(ctx, &Input{Split: dataset.SplitTrain, Language: dataset.LanguageDutch, PartSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 4, result.TotalSymbols)
	assert.Equal(t, 1, result.AlreadyLabelled)
	assert.Equal(t, 3, result.RetrievedSymbols)
	assert.Equal(t, 2, result.Parts)
	repo.AssertExpectations(t)
	source.AssertExpectations(t)
}

func TestRun_NothingMissing(t *testing.T) {
	svc, symbols, repo, source := newLabelService(t)

	symbols.On("SymbolsMap", mock.Anything, dataset.SplitTest).Return(map[string][]string{"1": {"Q1"}}, nil)
	repo.On("Missing", mock.Anything, []string{"Q1"}).Return([]string{}, nil)

	result, err := svc.Run(context.Background(), &Input{Split: dataset.SplitTest, Language: dataset.LanguageEnglish, PartSize: 50})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Parts)
	assert.Equal(t, 0, result.RetrievedSymbols)
	assert.Equal(t, 1, result.AlreadyLabelled)
	source.AssertNotCalled(t, "FetchLabels", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_InputValidation(t *testing.T) {
	svc, _, _, _ := newLabelService(t)
	ctx := context.Background()

	_, err := svc.Run(ctx, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidParam))

	_, err = svc.Run(ctx, &Input{Split: dataset.Split("dev"), Language: dataset.LanguageDutch, PartSize: 1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetUnknownSplit))

	_, err = svc.Run(ctx, &Input{Split: dataset.SplitTrain, Language: dataset.Language("xx"), PartSize: 1})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatasetUnknownLanguage))

	_, err = svc.Run(ctx, &Input{Split: dataset.SplitTrain, Language: dataset.LanguageDutch, PartSize: 0})
	assert.True(t, errors.IsCode(err, errors.ErrCodeLabelInvalidPartSize))
}

func TestRun_StopsAtFirstFailedPart(t *testing.T) {
	svc, symbols, repo, source := newLabelService(t)

	symbols.On("SymbolsMap", mock.Anything, dataset.SplitTrain).Return(map[string][]string{
		"1": {"Q1", "Q2", "Q3"},
	}, nil)
	repo.On("Missing", mock.Anything, []string{"Q1", "Q2", "Q3"}).Return([]string{"Q1", "Q2", "Q3"}, nil)

	queryErr := errors.New(errors.ErrCodeLabelQueryFailed, "Wikidata returned a non-200 response")
	source.On("FetchLabels", mock.Anything, []string{"Q1", "Q2"}, dataset.LanguageDutch).Return(nil, queryErr)

	_, err := svc.Run(context.Background(), &Input{Split: dataset.SplitTrain, Language: dataset.LanguageDutch, PartSize: 2})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeLabelQueryFailed))
	repo.AssertNotCalled(t, "Store", mock.Anything, mock.Anything)
	source.AssertNotCalled(t, "FetchLabels", mock.Anything, []string{"Q3"}, mock.Anything)
}

func TestPartition(t *testing.T) {
	parts := partition([]string{"a", "b", "c", "d", "e"}, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, parts)

	assert.Nil(t, partition(nil, 3))
	assert.Equal(t, [][]string{{"a"}}, partition([]string{"a"}, 10))
}
