package repo

import (
	"context"
	"errors"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepo interface {
	GetWithChain(ctx context.Context, taskID uuid.UUID) (*model.Task, error)
	ListByStep(ctx context.Context, stepID uuid.UUID) ([]model.Task, error)
	UpdateTaskGuarded(ctx context.Context, taskID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error
	UpdateApprovalStatus(ctx context.Context, approvalID uuid.UUID, status string) error
	GetAssignment(ctx context.Context, taskID uuid.UUID) (*model.TaskAssignment, error)
	CreateAssignment(ctx context.Context, a *model.TaskAssignment) error
	UpdateAssignmentGuarded(ctx context.Context, assignmentID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error
	CreateDocument(ctx context.Context, d *model.Document) error
}

type taskRepo struct{ db *gorm.DB }

func NewTaskRepo(db *gorm.DB) TaskRepo {
	return &taskRepo{db: db}
}

func (r *taskRepo) GetWithChain(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	var t model.Task
	err := r.db.WithContext(ctx).
		Preload("Approvals", func(db *gorm.DB) *gorm.DB {
			return db.Order("approval_order ASC")
		}).
		Where("id = ?", taskID).
		First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("task")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *taskRepo) ListByStep(ctx context.Context, stepID uuid.UUID) ([]model.Task, error) {
	var tasks []model.Task
	return tasks, r.db.WithContext(ctx).
		Where("working_step_id = ?", stepID).
		Order("task_order ASC").
		Find(&tasks).Error
}

func (r *taskRepo) UpdateTaskGuarded(ctx context.Context, taskID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error {
	return UpdateGuarded[model.Task](ctx, r.db, taskID, expectedVersion, actor, changes)
}

// UpdateApprovalStatus is not version-guarded: TaskApproval rows are only
// mutated while the caller holds a successful guarded write on the parent
// task, which already serializes racing approvers.
func (r *taskRepo) UpdateApprovalStatus(ctx context.Context, approvalID uuid.UUID, status string) error {
	res := r.db.WithContext(ctx).Model(&model.TaskApproval{}).
		Where("id = ?", approvalID).
		Update("approval_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("task approval")
	}
	return nil
}

func (r *taskRepo) GetAssignment(ctx context.Context, taskID uuid.UUID) (*model.TaskAssignment, error) {
	var a model.TaskAssignment
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("task assignment")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *taskRepo) CreateAssignment(ctx context.Context, a *model.TaskAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *taskRepo) UpdateAssignmentGuarded(ctx context.Context, assignmentID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error {
	return UpdateGuarded[model.TaskAssignment](ctx, r.db, assignmentID, expectedVersion, actor, changes)
}

func (r *taskRepo) CreateDocument(ctx context.Context, d *model.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}
