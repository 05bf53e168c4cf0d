package repo

import (
	"context"
	"time"

	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Versionable is any model embedding model.Versioned.
type Versionable interface {
	TableName() string
}

// UpdateGuarded is the single write path for version-guarded fields. It
// issues one conditional UPDATE:
//
//	UPDATE <table> SET <changes>, version = version + 1,
//	       last_modified_by = <actor>, last_modified_at = now()
//	WHERE id = ? AND version = ?
//
// Zero rows affected means either the row is gone (ErrNotFound) or the
// caller's version is stale (ErrVersionConflict). A follow-up existence read
// distinguishes the two. No retry is performed here; callers re-read and
// decide.
func UpdateGuarded[T Versionable](ctx context.Context, db *gorm.DB, id uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error {
	var m T

	upd := make(map[string]any, len(changes)+3)
	for k, v := range changes {
		upd[k] = v
	}
	upd["version"] = gorm.Expr("version + 1")
	upd["last_modified_by"] = actor
	upd["last_modified_at"] = time.Now().UTC()

	res := db.WithContext(ctx).Model(&m).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(upd)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := db.WithContext(ctx).Model(&m).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperr.NotFound(m.TableName())
	}
	return apperr.VersionConflict(m.TableName(), expectedVersion)
}
