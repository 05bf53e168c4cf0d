package service

import (
	"context"
	"errors"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/repo"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// StepGateService owns the is_locked flag of working steps. The flag is
// stored as source of truth and mutated only here, but every evaluation
// re-derives the expected value from task completion and repairs drift.
type StepGateService interface {
	// CheckAndUnlockNextStep unlocks the step after the given one once all
	// of its required tasks are completed. A step with zero required tasks
	// is vacuously satisfied. Idempotent.
	CheckAndUnlockNextStep(ctx context.Context, stepID uuid.UUID, actor uuid.UUID) error

	// EvaluateLock returns the step with its lock state re-derived from the
	// predecessor's task completion, repairing a stale stored flag.
	EvaluateLock(ctx context.Context, stepID uuid.UUID, actor uuid.UUID) (*model.WorkingStep, error)

	// ListProjectSteps returns the project's steps in order, each with its
	// lock state re-derived the same way EvaluateLock does.
	ListProjectSteps(ctx context.Context, projectID uuid.UUID, actor uuid.UUID) ([]model.WorkingStep, error)
}

type stepGateService struct {
	steps    repo.WorkingStepRepo
	tasks    repo.TaskRepo
	projects repo.ProjectRepo
	notify   Notifier
	log      *zap.Logger
}

func NewStepGateService(steps repo.WorkingStepRepo, tasks repo.TaskRepo, projects repo.ProjectRepo, notify Notifier, log *zap.Logger) StepGateService {
	return &stepGateService{steps: steps, tasks: tasks, projects: projects, notify: notify, log: log}
}

// requiredTasksDone reports whether every required task of the step is
// completed. Zero required tasks counts as satisfied.
func (s *stepGateService) requiredTasksDone(ctx context.Context, stepID uuid.UUID) (bool, error) {
	tasks, err := s.tasks.ListByStep(ctx, stepID)
	if err != nil {
		return false, err
	}
	for _, t := range tasks {
		if t.IsRequired && t.CompletionStatus != model.CompletionCompleted {
			return false, nil
		}
	}
	return true, nil
}

func (s *stepGateService) CheckAndUnlockNextStep(ctx context.Context, stepID uuid.UUID, actor uuid.UUID) error {
	step, err := s.steps.Get(ctx, stepID)
	if err != nil {
		return err
	}

	minOrder, err := s.steps.MinOrder(ctx, step.ProjectID)
	if err != nil {
		return err
	}

	// The minimum-order step must never be locked. Finding it locked is a
	// data-integrity bug: log loudly and repair.
	if step.StepOrder == minOrder && step.IsLocked {
		s.log.Sugar().Errorw("first working step found locked, repairing",
			"step_id", step.ID, "project_id", step.ProjectID)
		if err := s.unlock(ctx, step, actor); err != nil {
			return err
		}
	}

	done, err := s.requiredTasksDone(ctx, step.ID)
	if err != nil {
		return err
	}
	if !done {
		return nil
	}

	next, err := s.steps.GetByProjectOrder(ctx, step.ProjectID, step.StepOrder+1)
	if errors.Is(err, apperr.ErrNotFound) {
		// Last step of the project.
		return nil
	}
	if err != nil {
		return err
	}
	if !next.IsLocked {
		return nil
	}

	if err := s.unlock(ctx, next, actor); err != nil {
		return err
	}

	s.notify.Dispatch(ctx, Event{
		ProjectID: next.ProjectID,
		EventKind: EventWorkerTaskUpdate,
		Message:   "working step unlocked: " + next.Name,
	})
	return nil
}

func (s *stepGateService) EvaluateLock(ctx context.Context, stepID uuid.UUID, actor uuid.UUID) (*model.WorkingStep, error) {
	step, err := s.steps.Get(ctx, stepID)
	if err != nil {
		return nil, err
	}

	minOrder, err := s.steps.MinOrder(ctx, step.ProjectID)
	if err != nil {
		return nil, err
	}

	// A locked minimum-order step is a data-integrity bug, not ordinary
	// staleness. Log loudly and repair.
	if step.StepOrder == minOrder {
		if step.IsLocked {
			s.log.Sugar().Errorw("first working step found locked, repairing",
				"step_id", step.ID, "project_id", step.ProjectID)
			if err := s.unlock(ctx, step, actor); err != nil {
				return nil, err
			}
		}
		return step, nil
	}

	prev, err := s.steps.GetByProjectOrder(ctx, step.ProjectID, step.StepOrder-1)
	if err != nil {
		return nil, err
	}
	done, err := s.requiredTasksDone(ctx, prev.ID)
	if err != nil {
		return nil, err
	}

	if step.IsLocked && done {
		s.log.Sugar().Warnw("stale step lock detected, repairing",
			"step_id", step.ID, "step_order", step.StepOrder, "project_id", step.ProjectID)
		if err := s.unlock(ctx, step, actor); err != nil {
			return nil, err
		}
	}
	return step, nil
}

func (s *stepGateService) ListProjectSteps(ctx context.Context, projectID uuid.UUID, actor uuid.UUID) ([]model.WorkingStep, error) {
	steps, err := s.steps.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	prevDone := true
	for i := range steps {
		step := &steps[i]
		// First step never locks; later steps lock iff the predecessor still
		// has incomplete required tasks.
		if step.IsLocked && i == 0 {
			s.log.Sugar().Errorw("first working step found locked, repairing",
				"step_id", step.ID, "project_id", step.ProjectID)
			if err := s.unlock(ctx, step, actor); err != nil {
				return nil, err
			}
		} else if step.IsLocked && prevDone {
			s.log.Sugar().Warnw("stale step lock detected, repairing",
				"step_id", step.ID, "step_order", step.StepOrder, "project_id", step.ProjectID)
			if err := s.unlock(ctx, step, actor); err != nil {
				return nil, err
			}
		}
		prevDone, err = s.requiredTasksDone(ctx, step.ID)
		if err != nil {
			return nil, err
		}
	}
	return steps, nil
}

// unlock flips is_locked through the guard. A version conflict here means a
// concurrent request raced us; if the step ended up unlocked anyway the goal
// is reached and the conflict is swallowed.
func (s *stepGateService) unlock(ctx context.Context, step *model.WorkingStep, actor uuid.UUID) error {
	err := s.steps.UpdateStepGuarded(ctx, step.ID, step.Version, actor, map[string]any{
		"is_locked": false,
	})
	if errors.Is(err, apperr.ErrVersionConflict) {
		fresh, rerr := s.steps.Get(ctx, step.ID)
		if rerr != nil {
			return rerr
		}
		if !fresh.IsLocked {
			*step = *fresh
			return nil
		}
		return err
	}
	if err != nil {
		return err
	}

	step.IsLocked = false
	step.Version++

	if aerr := s.projects.CreateActivity(ctx, &model.ActivityLog{
		ProjectID: step.ProjectID,
		Target:    model.StepRef(step.ID),
		Action:    "step_unlocked",
		ActorID:   actor,
		Detail:    datatypes.JSONMap{"step_order": step.StepOrder},
	}); aerr != nil {
		s.log.Sugar().Warnw("activity log write failed", "err", aerr)
	}
	return nil
}
