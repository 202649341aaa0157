package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// documentRow is the single table behind GormStore. Seq preserves insertion
// order for snapshots.
type documentRow struct {
	Seq        uint64            `gorm:"primaryKey;autoIncrement"`
	TenantID   string            `gorm:"size:128;not null;uniqueIndex:idx_documents_path,priority:1"`
	Collection string            `gorm:"size:64;not null;uniqueIndex:idx_documents_path,priority:2"`
	DocID      string            `gorm:"column:doc_id;size:128;not null;uniqueIndex:idx_documents_path,priority:3"`
	Data       datatypes.JSONMap `gorm:"type:jsonb;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

func (r documentRow) document() Document {
	return Document{
		ID:        r.DocID,
		Data:      map[string]any(r.Data),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// GormStore implements RecordStore on Postgres through GORM.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore runs the documents migration on db.
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return nil, fmt.Errorf("auto migrate documents: %w", mapDBError(err))
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) scoped(ctx context.Context, tenantID, collection string) *gorm.DB {
	return s.db.WithContext(ctx).Where("tenant_id = ? AND collection = ?", tenantID, collection)
}

func (s *GormStore) Create(ctx context.Context, tenantID, collection string, data map[string]any) (string, error) {
	if err := CheckScope(tenantID, collection); err != nil {
		return "", err
	}
	row := documentRow{
		TenantID:   tenantID,
		Collection: collection,
		DocID:      uuid.NewString(),
		Data:       datatypes.JSONMap(cloneData(data)),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", fmt.Errorf("create %s: %w", collection, mapDBError(err))
	}
	return row.DocID, nil
}

// CreateWithID relies on the unique path index: a concurrent insert of the
// same id affects no row and reports ErrAlreadyExists.
func (s *GormStore) CreateWithID(ctx context.Context, tenantID, collection, id string, data map[string]any) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	row := documentRow{
		TenantID:   tenantID,
		Collection: collection,
		DocID:      id,
		Data:       datatypes.JSONMap(cloneData(data)),
	}
	result := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
	if result.Error != nil {
		return fmt.Errorf("create %s: %w", collection, mapDBError(result.Error))
	}
	if result.RowsAffected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, tenantID, collection, id string) (Document, error) {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return Document{}, err
	}
	var row documentRow
	if err := s.scoped(ctx, tenantID, collection).Where("doc_id = ?", id).First(&row).Error; err != nil {
		return Document{}, mapDBError(err)
	}
	return row.document(), nil
}

func (s *GormStore) Update(ctx context.Context, tenantID, collection, id string, partial map[string]any) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	return s.merge(ctx, tenantID, collection, id, partial, false)
}

func (s *GormStore) SetMerge(ctx context.Context, tenantID, collection, id string, partial map[string]any) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	return s.merge(ctx, tenantID, collection, id, partial, true)
}

// merge does a locked read-modify-write of one row so that concurrent merges
// of different fields do not lose each other. When an upsert finds no row it
// inserts with ON CONFLICT DO NOTHING; if another writer inserted first, the
// row is locked again and merged like an existing one.
func (s *GormStore) merge(ctx context.Context, tenantID, collection, id string, partial map[string]any, upsert bool) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lockRow := func(row *documentRow) error {
			return tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("tenant_id = ? AND collection = ? AND doc_id = ?", tenantID, collection, id).
				First(row).Error
		}
		var row documentRow
		err := lockRow(&row)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if !upsert {
				return ErrNotFound
			}
			fresh := documentRow{
				TenantID:   tenantID,
				Collection: collection,
				DocID:      id,
				Data:       datatypes.JSONMap(cloneData(partial)),
			}
			result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh)
			if result.Error != nil || result.RowsAffected == 1 {
				return result.Error
			}
			row = documentRow{}
			err = lockRow(&row)
		}
		if err != nil {
			return err
		}
		row.Data = datatypes.JSONMap(mergeFields(map[string]any(row.Data), partial))
		return tx.Model(&row).Updates(map[string]any{
			"data":       row.Data,
			"updated_at": time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return mapDBError(err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, tenantID, collection, id string) error {
	if err := checkDocument(tenantID, collection, id); err != nil {
		return err
	}
	result := s.scoped(ctx, tenantID, collection).Where("doc_id = ?", id).Delete(&documentRow{})
	if result.Error != nil {
		return mapDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, tenantID, collection string) ([]Document, error) {
	if err := CheckScope(tenantID, collection); err != nil {
		return nil, err
	}
	var rows []documentRow
	if err := s.scoped(ctx, tenantID, collection).Order("seq ASC").Find(&rows).Error; err != nil {
		return nil, mapDBError(err)
	}
	docs := make([]Document, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, row.document())
	}
	return docs, nil
}

func (s *GormStore) Tenants(ctx context.Context) ([]string, error) {
	var tenants []string
	if err := s.db.WithContext(ctx).Model(&documentRow{}).
		Distinct("tenant_id").Order("tenant_id").Pluck("tenant_id", &tenants).Error; err != nil {
		return nil, mapDBError(err)
	}
	return tenants, nil
}

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation       = "23505"
	pgInsufficientPrivilege = "42501"
)

// mapDBError translates driver failures into the store error taxonomy.
func mapDBError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrAlreadyExists
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrAlreadyExists
		case pgInsufficientPrivilege:
			return fmt.Errorf("%w: %s", ErrPermissionDenied, pgErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
