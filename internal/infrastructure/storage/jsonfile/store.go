// Package jsonfile implements the file-backed collaborators of the dataset
// pipeline: split records, symbol maps, label files, masked pairs and the
// finalised text artefacts. All JSON is written with sorted keys so that
// repeated runs produce byte-identical files.
package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

const (
	// SupplementsDir holds derived per-split artefacts (symbol maps, labels).
	SupplementsDir = "supplements"
	// FinalisedDir holds the model-ready text files.
	FinalisedDir = "finalised"

	dirPerm  = 0o755
	filePerm = 0o644
)

// Config locates the dataset directory on disk.
type Config struct {
	DatasetDir string `mapstructure:"dataset_dir"`
}

// DefaultConfig returns a Config rooted in the working directory.
func DefaultConfig() *Config {
	return &Config{DatasetDir: "resources/dataset"}
}

// Store reads and writes the pipeline's JSON and text files.
type Store struct {
	cfg    *Config
	logger logging.Logger
}

// NewStore creates a file store rooted at cfg.DatasetDir.
func NewStore(cfg *Config, logger logging.Logger) (*Store, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.DatasetDir == "" {
		return nil, errors.InvalidParam("dataset directory must not be empty")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Store{cfg: cfg, logger: logger}, nil
}

// DatasetDir returns the root directory the store operates in.
func (s *Store) DatasetDir() string {
	return s.cfg.DatasetDir
}

// SplitPath returns the path of the raw LC-QuAD split file, e.g. "train.json".
func (s *Store) SplitPath(split dataset.Split) string {
	return filepath.Join(s.cfg.DatasetDir, split.String()+".json")
}

// SymbolsMapPath returns the path of the per-split UID-to-symbols map.
func (s *Store) SymbolsMapPath(split dataset.Split) string {
	name := split.String() + "-entities-properties-map.json"
	return filepath.Join(s.cfg.DatasetDir, SupplementsDir, name)
}

// LabelsPath returns the path of the per-split, per-language labels file.
func (s *Store) LabelsPath(split dataset.Split, lang dataset.Language) string {
	name := split.String() + "-" + lang.String() + "-entity-property-labels.json"
	return filepath.Join(s.cfg.DatasetDir, SupplementsDir, name)
}

// Records loads the raw LC-QuAD records of a split. The split file is a
// single JSON array of record objects.
func (s *Store) Records(ctx context.Context, split dataset.Split) ([]dataset.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "context cancelled")
	}
	path := s.SplitPath(split)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "failed to read split file").
			WithDetailf("path=%s", path)
	}
	var records []dataset.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageMalformedJSON, "split file is not a JSON record array").
			WithDetailf("path=%s", path)
	}
	s.logger.Debug("loaded dataset split",
		logging.String("split", split.String()),
		logging.Int("records", len(records)))
	return records, nil
}

// StringMap loads a JSON object whose values are all strings, such as a
// translated questions file (UID to question text).
func (s *Store) StringMap(ctx context.Context, name string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "context cancelled")
	}
	path := s.resolve(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "failed to read JSON map").
			WithDetailf("path=%s", path)
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageMalformedJSON, "file is not a string-to-string JSON object").
			WithDetailf("path=%s", path)
	}
	return m, nil
}

// SaveStringMap writes a string-to-string JSON object under the dataset
// directory.
func (s *Store) SaveStringMap(ctx context.Context, name string, m map[string]string) error {
	return s.writeJSON(ctx, s.resolve(name), m)
}

// SymbolsMap loads the UID-to-symbols map produced by the collect task.
func (s *Store) SymbolsMap(ctx context.Context, split dataset.Split) (map[string][]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "context cancelled")
	}
	path := s.SymbolsMapPath(split)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "failed to read symbols map").
			WithDetailf("path=%s", path)
	}
	var m map[string][]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageMalformedJSON, "symbols map is malformed").
			WithDetailf("path=%s", path)
	}
	return m, nil
}

// SaveSymbolsMap writes the UID-to-symbols map of a split.
func (s *Store) SaveSymbolsMap(ctx context.Context, split dataset.Split, m map[string][]string) error {
	return s.writeJSON(ctx, s.SymbolsMapPath(split), m)
}

// MaskedPairs loads a masked question-answer file (UID to {q, a}).
func (s *Store) MaskedPairs(ctx context.Context, name string) (map[string]dataset.MaskedPair, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "context cancelled")
	}
	path := s.resolve(name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageReadFailed, "failed to read masked pairs").
			WithDetailf("path=%s", path)
	}
	var m map[string]dataset.MaskedPair
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageMalformedJSON, "masked pairs file is malformed").
			WithDetailf("path=%s", path)
	}
	return m, nil
}

// SaveMaskedPairs writes a masked question-answer file.
func (s *Store) SaveMaskedPairs(ctx context.Context, name string, m map[string]dataset.MaskedPair) error {
	return s.writeJSON(ctx, s.resolve(name), m)
}

// SaveLines writes one text line per entry into the finalised directory.
// Every line, the last included, is newline-terminated.
func (s *Store) SaveLines(ctx context.Context, name string, lines []string) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWriteFailed, "context cancelled")
	}
	path := filepath.Join(s.cfg.DatasetDir, FinalisedDir, name)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWriteFailed, "failed to create finalised directory").
			WithDetailf("path=%s", path)
	}
	var buf []byte
	for _, line := range lines {
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}
	if err := os.WriteFile(path, buf, filePerm); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWriteFailed, "failed to write text file").
			WithDetailf("path=%s", path)
	}
	s.logger.Debug("wrote finalised file",
		logging.String("path", path),
		logging.Int("lines", len(lines)))
	return nil
}

// resolve joins a pipeline file name onto the dataset directory. Absolute
// names are used as given.
func (s *Store) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.cfg.DatasetDir, name)
}

// writeJSON marshals v with tab indentation and sorted object keys and
// writes it to path, creating parent directories as needed.
func (s *Store) writeJSON(ctx context.Context, path string, v interface{}) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWriteFailed, "context cancelled")
	}
	data, err := json.MarshalIndent(v, "", "\t")
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWriteFailed, "failed to encode JSON").
			WithDetailf("path=%s", path)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWriteFailed, "failed to create directory").
			WithDetailf("path=%s", path)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageWriteFailed, "failed to write JSON file").
			WithDetailf("path=%s", path)
	}
	return nil
}
