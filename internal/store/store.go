package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"table-timeline-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	SaveDataset(ctx context.Context, upload Upload) (*model.Dataset, error)
	LatestDataset(ctx context.Context, role Role) (*model.Dataset, error)
	DeleteDataset(ctx context.Context, role Role) error
	History(ctx context.Context, role Role, limit int) ([]model.DatasetHistory, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, now: time.Now}
}

// SaveDataset replaces the stored upload for a role, archiving the previous one.
func (s *gormStore) SaveDataset(ctx context.Context, upload Upload) (*model.Dataset, error) {
	if _, err := ParseRole(string(upload.Role)); err != nil {
		return nil, err
	}
	if upload.Source == "" {
		upload.Source = SourceUpload
	}

	now := s.now().UTC()
	dataset := model.Dataset{
		Role:      string(upload.Role),
		Revision:  uuid.NewString(),
		FileName:  upload.FileName,
		Source:    string(upload.Source),
		Content:   upload.Content,
		RowCount:  upload.RowCount,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous model.Dataset
		err := tx.Where("role = ?", dataset.Role).Take(&previous).Error
		switch {
		case err == nil:
			if err := archiveDataset(tx, previous, now); err != nil {
				return err
			}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to load current %s dataset: %w", dataset.Role, err)
		}

		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "role"}},
			DoUpdates: clause.AssignmentColumns([]string{"revision", "file_name", "source", "content", "row_count", "updated_at"}),
		}).Create(&dataset).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save %s dataset: %w", dataset.Role, err)
	}

	log.Printf("Stored %s dataset revision %s (%d rows, %s)", dataset.Role, dataset.Revision, dataset.RowCount, dataset.Source)
	return &dataset, nil
}

// LatestDataset returns the stored upload for a role or ErrNotFound.
func (s *gormStore) LatestDataset(ctx context.Context, role Role) (*model.Dataset, error) {
	var dataset model.Dataset
	err := s.db.WithContext(ctx).Where("role = ?", string(role)).Take(&dataset).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, role)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s dataset: %w", role, err)
	}
	return &dataset, nil
}

// DeleteDataset clears the stored upload for a role. Clearing an empty role is not an error.
func (s *gormStore) DeleteDataset(ctx context.Context, role Role) error {
	now := s.now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var previous model.Dataset
		err := tx.Where("role = ?", string(role)).Take(&previous).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to load %s dataset: %w", role, err)
		}
		if err := archiveDataset(tx, previous, now); err != nil {
			return err
		}
		if err := tx.Where("role = ?", string(role)).Delete(&model.Dataset{}).Error; err != nil {
			return fmt.Errorf("failed to delete %s dataset: %w", role, err)
		}
		return nil
	})
}

// History returns archived upload metadata for a role, newest first.
func (s *gormStore) History(ctx context.Context, role Role, limit int) ([]model.DatasetHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []model.DatasetHistory
	err := s.db.WithContext(ctx).
		Where("role = ?", string(role)).
		Order("replaced_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s history: %w", role, err)
	}
	return records, nil
}

// archiveDataset moves the metadata of a replaced upload to the history table.
func archiveDataset(tx *gorm.DB, previous model.Dataset, replacedAt time.Time) error {
	record := model.DatasetHistory{
		Role:       previous.Role,
		Revision:   previous.Revision,
		FileName:   previous.FileName,
		Source:     previous.Source,
		RowCount:   previous.RowCount,
		UploadedAt: previous.UpdatedAt,
		ReplacedAt: replacedAt,
	}
	if err := tx.Create(&record).Error; err != nil {
		return fmt.Errorf("failed to archive %s dataset %s: %w", previous.Role, previous.Revision, err)
	}
	return nil
}
