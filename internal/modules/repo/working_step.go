package repo

import (
	"context"
	"errors"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WorkingStepRepo interface {
	Get(ctx context.Context, stepID uuid.UUID) (*model.WorkingStep, error)
	GetByProjectOrder(ctx context.Context, projectID uuid.UUID, order int) (*model.WorkingStep, error)
	MinOrder(ctx context.Context, projectID uuid.UUID) (int, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.WorkingStep, error)
	UpdateStepGuarded(ctx context.Context, stepID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error
}

type workingStepRepo struct{ db *gorm.DB }

func NewWorkingStepRepo(db *gorm.DB) WorkingStepRepo {
	return &workingStepRepo{db: db}
}

func (r *workingStepRepo) Get(ctx context.Context, stepID uuid.UUID) (*model.WorkingStep, error) {
	var s model.WorkingStep
	err := r.db.WithContext(ctx).Where("id = ?", stepID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("working step")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *workingStepRepo) GetByProjectOrder(ctx context.Context, projectID uuid.UUID, order int) (*model.WorkingStep, error) {
	var s model.WorkingStep
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND step_order = ?", projectID, order).
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("working step")
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *workingStepRepo) MinOrder(ctx context.Context, projectID uuid.UUID) (int, error) {
	var min int
	err := r.db.WithContext(ctx).Model(&model.WorkingStep{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MIN(step_order), 0)").
		Scan(&min).Error
	return min, err
}

func (r *workingStepRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.WorkingStep, error) {
	var steps []model.WorkingStep
	return steps, r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("step_order ASC").
		Find(&steps).Error
}

func (r *workingStepRepo) UpdateStepGuarded(ctx context.Context, stepID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error {
	return UpdateGuarded[model.WorkingStep](ctx, r.db, stepID, expectedVersion, actor, changes)
}
