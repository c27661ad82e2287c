package ingest

import (
	"context"
	"errors"
	"fmt"
	"log"

	"table-timeline-backend/internal/metrics"
	"table-timeline-backend/internal/model"
	"table-timeline-backend/internal/parse"
	"table-timeline-backend/internal/store"
)

// ErrEmptyDataset is returned for text that parses to a header and no rows.
var ErrEmptyDataset = errors.New("dataset contains no rows")

// Importer validates raw CSV text and stores it for a role. Uploads from the
// API and fetches from remote exports both go through it.
type Importer struct {
	store   store.Store
	opts    parse.Options
	metrics *metrics.Metrics
	hooks   []func(role store.Role)
}

// NewImporter creates an Importer. m may be nil.
func NewImporter(st store.Store, opts parse.Options, m *metrics.Metrics) *Importer {
	return &Importer{store: st, opts: opts, metrics: m}
}

// OnStored registers fn to run after a dataset is replaced or cleared.
func (im *Importer) OnStored(fn func(role store.Role)) {
	im.hooks = append(im.hooks, fn)
}

// Import parses content, rejects unusable text and stores it as the role's
// latest dataset. The parsed rows are returned alongside the stored record.
func (im *Importer) Import(ctx context.Context, role store.Role, fileName string, source store.SourceType, content string) (*model.Dataset, []parse.Row, error) {
	rows, err := parse.RecordsWithOptions(content, im.opts)
	if err == nil && len(rows) == 0 {
		err = ErrEmptyDataset
	}
	if err != nil {
		im.metrics.RecordUpload(string(role), string(source), metrics.StatusRejected, 0)
		return nil, nil, fmt.Errorf("%s dataset %q: %w", role, fileName, err)
	}

	dataset, err := im.store.SaveDataset(ctx, store.Upload{
		Role:     role,
		FileName: fileName,
		Source:   source,
		Content:  content,
		RowCount: len(rows),
	})
	if err != nil {
		im.metrics.RecordUpload(string(role), string(source), metrics.StatusError, 0)
		return nil, nil, err
	}

	im.metrics.RecordUpload(string(role), string(source), metrics.StatusSuccess, len(rows))
	im.notify(role)
	return dataset, rows, nil
}

// Clear removes the stored dataset of a role.
func (im *Importer) Clear(ctx context.Context, role store.Role) error {
	if err := im.store.DeleteDataset(ctx, role); err != nil {
		return err
	}
	im.metrics.RecordDatasetCleared(string(role))
	im.notify(role)
	return nil
}

// Load returns the stored dataset of a role and its parsed rows.
func (im *Importer) Load(ctx context.Context, role store.Role) (*model.Dataset, []parse.Row, error) {
	dataset, err := im.store.LatestDataset(ctx, role)
	if err != nil {
		return nil, nil, err
	}
	rows, err := parse.RecordsWithOptions(dataset.Content, im.opts)
	if err != nil {
		return nil, nil, fmt.Errorf("stored %s dataset %s: %w", role, dataset.Revision, err)
	}
	return dataset, rows, nil
}

func (im *Importer) notify(role store.Role) {
	for _, fn := range im.hooks {
		fn(role)
	}
	log.Printf("Dataset %s changed", role)
}
