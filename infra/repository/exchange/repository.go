// Package exchange provides the gorm-backed exchange record store.
package exchange

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	exch "github.com/amirasaad/kapital/pkg/exchange"
)

type repository struct {
	db *gorm.DB
}

// New creates an exchange record store backed by the given *gorm.DB.
func New(db *gorm.DB) exch.RecordStore {
	return &repository{db: db}
}

// Query implements exchange.RecordStore.
func (r *repository) Query(ctx context.Context, filter exch.Filter) ([]exch.Record, error) {
	q := r.db.WithContext(ctx).Model(&ExchangeRecord{}).Where("schema = ?", exch.SchemaURI)
	if filter.ExchangeID != "" {
		q = q.Where("exchange_id = ?", filter.ExchangeID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	var rows []ExchangeRecord
	if err := q.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query exchange records: %w", err)
	}

	records := make([]exch.Record, 0, len(rows))
	for i := range rows {
		record, err := mapModelToRecord(&rows[i])
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, nil
}

// Create implements exchange.RecordStore.
func (r *repository) Create(ctx context.Context, record exch.Record) (string, error) {
	row, err := mapRecordToModel(record)
	if err != nil {
		return "", err
	}
	row.ID = uuid.New()
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("failed to create exchange record: %w", err)
	}
	return row.ID.String(), nil
}

// Update implements exchange.RecordStore.
func (r *repository) Update(ctx context.Context, recordID string, record exch.Record) error {
	id, err := uuid.Parse(recordID)
	if err != nil {
		return fmt.Errorf("invalid record id %q: %w", recordID, err)
	}
	row, err := mapRecordToModel(record)
	if err != nil {
		return err
	}
	result := r.db.WithContext(ctx).Model(&ExchangeRecord{}).Where("id = ?", id).Updates(map[string]any{
		"status":   row.Status,
		"rating":   row.Rating,
		"document": row.Document,
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update exchange record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func mapRecordToModel(record exch.Record) (*ExchangeRecord, error) {
	doc, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode exchange record: %w", err)
	}
	return &ExchangeRecord{
		ExchangeID:  record.ExchangeID,
		ProviderURI: record.ProviderURI,
		Schema:      exch.SchemaURI,
		Status:      string(record.Status),
		Rating:      record.Rating,
		Document:    doc,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}, nil
}

func mapModelToRecord(row *ExchangeRecord) (*exch.Record, error) {
	var record exch.Record
	if err := json.Unmarshal(row.Document, &record); err != nil {
		return nil, fmt.Errorf("failed to decode exchange record %s: %w", row.ID, err)
	}
	// Columns win over the stored document for mutable fields.
	record.ID = row.ID.String()
	record.Status = exch.Status(row.Status)
	record.Rating = row.Rating
	record.CreatedAt = row.CreatedAt
	record.UpdatedAt = row.UpdatedAt
	return &record, nil
}
