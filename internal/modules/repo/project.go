package repo

import (
	"context"
	"errors"
	"time"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProjectRepo interface {
	Get(ctx context.Context, projectID uuid.UUID) (*model.Project, error)
	GetClient(ctx context.Context, clientID uuid.UUID) (*model.Client, error)
	ListWithCursor(ctx context.Context, clientID *uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]*model.Project, error)
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	// CreateTree inserts the project together with its steps, tasks,
	// approvals and assignments in one transaction.
	CreateTree(ctx context.Context, p *model.Project, steps []model.WorkingStep, tasksByStep map[int][]model.Task, approvalsByTask map[int]map[int][]model.TaskApproval) error
	CountTasksByCompletion(ctx context.Context, projectID uuid.UUID) (map[string]int64, error)
	CreateActivity(ctx context.Context, entry *model.ActivityLog) error
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepo(db *gorm.DB) ProjectRepo {
	return &projectRepo{db: db}
}

func (r *projectRepo) Get(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	var p model.Project
	err := r.db.WithContext(ctx).Where("id = ?", projectID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("project")
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) GetClient(ctx context.Context, clientID uuid.UUID) (*model.Client, error) {
	var c model.Client
	err := r.db.WithContext(ctx).Where("id = ?", clientID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("client")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *projectRepo) ListWithCursor(ctx context.Context, clientID *uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int, timeDesc bool) ([]*model.Project, error) {
	q := r.db.WithContext(ctx).Model(&model.Project{})
	if clientID != nil {
		q = q.Where("client_id = ?", *clientID)
	}

	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		comparisonOp := ">"
		if timeDesc {
			comparisonOp = "<"
		}
		q = q.Where(
			"(created_at "+comparisonOp+" ?) OR (created_at = ? AND id "+comparisonOp+" ?)",
			afterCreatedAt, afterCreatedAt, afterID,
		)
	}

	orderBy := "created_at ASC, id ASC"
	if timeDesc {
		orderBy = "created_at DESC, id DESC"
	}

	var projects []*model.Project
	return projects, q.Order(orderBy).Limit(limit).Find(&projects).Error
}

func (r *projectRepo) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	q := r.db.WithContext(ctx).Model(&model.Project{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *projectRepo) CreateTree(ctx context.Context, p *model.Project, steps []model.WorkingStep, tasksByStep map[int][]model.Task, approvalsByTask map[int]map[int][]model.TaskApproval) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(p).Error; err != nil {
			return err
		}

		for i := range steps {
			step := &steps[i]
			step.ProjectID = p.ID
			if err := tx.Create(step).Error; err != nil {
				return err
			}

			tasks := tasksByStep[step.StepOrder]
			for j := range tasks {
				task := &tasks[j]
				task.WorkingStepID = step.ID
				task.ProjectID = p.ID
				if err := tx.Create(task).Error; err != nil {
					return err
				}

				for _, approval := range approvalsByTask[step.StepOrder][task.TaskOrder] {
					approval.TaskID = task.ID
					if err := tx.Create(&approval).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func (r *projectRepo) CountTasksByCompletion(ctx context.Context, projectID uuid.UUID) (map[string]int64, error) {
	type row struct {
		CompletionStatus string
		N                int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("completion_status, COUNT(*) AS n").
		Where("project_id = ?", projectID).
		Group("completion_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.CompletionStatus] = r.N
	}
	return counts, nil
}

func (r *projectRepo) CreateActivity(ctx context.Context, entry *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
