package postgres

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// LabelRepo persists the label vocabulary in the labels table, keyed by
// split, language and symbol. One repository instance covers one split
// and language pair, mirroring the per-file scope of the JSON store.
type LabelRepo struct {
	pool   *pgxpool.Pool
	split  dataset.Split
	lang   dataset.Language
	logger logging.Logger
}

// NewLabelRepo creates a label repository backed by the given connection.
func NewLabelRepo(conn *Connection, split dataset.Split, lang dataset.Language, log logging.Logger) (*LabelRepo, error) {
	if conn == nil {
		return nil, errors.InvalidParam("postgres connection must not be nil")
	}
	if !split.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownSplit, "unknown dataset split").
			WithDetailf("split=%q", split.String())
	}
	if !lang.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownLanguage, "unknown natural language").
			WithDetailf("language=%q", lang.String())
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &LabelRepo{
		pool:   conn.Pool(),
		split:  split,
		lang:   lang,
		logger: log,
	}, nil
}

// LabelsFor returns a label map covering exactly the requested symbols.
// Symbols without a stored row map to nil; a stored row with no labels
// maps to an empty list.
func (r *LabelRepo) LabelsFor(ctx context.Context, symbols []string) (labels.SymbolLabels, error) {
	out := make(labels.SymbolLabels, len(symbols))
	if len(symbols) == 0 {
		return out, nil
	}
	for _, symbol := range symbols {
		out[symbol] = nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT symbol, labels
		FROM labels
		WHERE split = $1 AND language = $2 AND symbol = ANY($3)`,
		r.split.String(), r.lang.String(), symbols)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query labels")
	}
	defer rows.Close()

	for rows.Next() {
		var symbol string
		var data []byte
		if err := rows.Scan(&symbol, &data); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan label row")
		}
		var ls []string
		if err := json.Unmarshal(data, &ls); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSerialization, "stored label entry is malformed").
				WithDetailf("symbol=%s", symbol)
		}
		if ls == nil {
			ls = []string{}
		}
		out[symbol] = ls
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read label rows")
	}
	return out, nil
}

// Store upserts the given labels into the vocabulary. Symbols already
// present are overwritten, matching the merge-append of the JSON store.
func (r *LabelRepo) Store(ctx context.Context, sl labels.SymbolLabels) error {
	if len(sl) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, symbol := range sl.Symbols() {
		ls := sl[symbol]
		if ls == nil {
			ls = []string{}
		}
		data, err := json.Marshal(ls)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode labels").
				WithDetailf("symbol=%s", symbol)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO labels (split, language, symbol, labels, updated_at)
			VALUES ($1, $2, $3, $4, now())
			ON CONFLICT (split, language, symbol)
			DO UPDATE SET labels = EXCLUDED.labels, updated_at = now()`,
			r.split.String(), r.lang.String(), symbol, data)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to upsert label").
				WithDetailf("symbol=%s", symbol)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to commit transaction")
	}

	r.logger.Debug("stored labels",
		logging.String("split", r.split.String()),
		logging.String("language", r.lang.String()),
		logging.Int("symbols", len(sl)),
	)
	return nil
}

// Missing returns, in lexicographic order, the requested symbols that have
// no stored row yet.
func (r *LabelRepo) Missing(ctx context.Context, symbols []string) ([]string, error) {
	if len(symbols) == 0 {
		return []string{}, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT symbol
		FROM labels
		WHERE split = $1 AND language = $2 AND symbol = ANY($3)`,
		r.split.String(), r.lang.String(), symbols)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query labels")
	}
	defer rows.Close()

	stored := make(map[string]struct{}, len(symbols))
	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan label row")
		}
		stored[symbol] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to read label rows")
	}

	want := make(labels.SymbolLabels, len(symbols))
	for _, symbol := range symbols {
		if _, ok := stored[symbol]; !ok {
			want[symbol] = nil
		}
	}
	return want.Symbols(), nil
}
