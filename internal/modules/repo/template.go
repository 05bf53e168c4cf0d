package repo

import (
	"context"
	"errors"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateRepo interface {
	Create(ctx context.Context, t *model.ProjectTemplate) error
	GetWithTree(ctx context.Context, templateID uuid.UUID) (*model.ProjectTemplate, error)
	List(ctx context.Context) ([]model.ProjectTemplate, error)
	Rename(ctx context.Context, templateID uuid.UUID, name, slug string) error
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
}

type templateRepo struct{ db *gorm.DB }

func NewTemplateRepo(db *gorm.DB) TemplateRepo {
	return &templateRepo{db: db}
}

func (r *templateRepo) Create(ctx context.Context, t *model.ProjectTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *templateRepo) GetWithTree(ctx context.Context, templateID uuid.UUID) (*model.ProjectTemplate, error) {
	var t model.ProjectTemplate
	err := r.db.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("step_order ASC")
		}).
		Preload("Steps.Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("task_order ASC")
		}).
		Where("id = ?", templateID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("project template")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *templateRepo) List(ctx context.Context) ([]model.ProjectTemplate, error) {
	var templates []model.ProjectTemplate
	return templates, r.db.WithContext(ctx).Order("created_at ASC").Find(&templates).Error
}

func (r *templateRepo) Rename(ctx context.Context, templateID uuid.UUID, name, slug string) error {
	res := r.db.WithContext(ctx).Model(&model.ProjectTemplate{}).
		Where("id = ?", templateID).
		Updates(map[string]any{"name": name, "slug": slug})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("project template")
	}
	return nil
}

func (r *templateRepo) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.ProjectTemplate{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
