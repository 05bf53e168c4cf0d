package service

import (
	"context"
	"testing"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockWorkingStepRepo is a mock implementation of repo.WorkingStepRepo
type MockWorkingStepRepo struct {
	mock.Mock
}

func (m *MockWorkingStepRepo) Get(ctx context.Context, stepID uuid.UUID) (*model.WorkingStep, error) {
	args := m.Called(ctx, stepID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WorkingStep), args.Error(1)
}

func (m *MockWorkingStepRepo) GetByProjectOrder(ctx context.Context, projectID uuid.UUID, order int) (*model.WorkingStep, error) {
	args := m.Called(ctx, projectID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.WorkingStep), args.Error(1)
}

func (m *MockWorkingStepRepo) MinOrder(ctx context.Context, projectID uuid.UUID) (int, error) {
	args := m.Called(ctx, projectID)
	return args.Int(0), args.Error(1)
}

func (m *MockWorkingStepRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]model.WorkingStep, error) {
	args := m.Called(ctx, projectID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.WorkingStep), args.Error(1)
}

func (m *MockWorkingStepRepo) UpdateStepGuarded(ctx context.Context, stepID uuid.UUID, expectedVersion int, actor uuid.UUID, changes map[string]any) error {
	args := m.Called(ctx, stepID, expectedVersion, actor, changes)
	return args.Error(0)
}

type gateMocks struct {
	steps    *MockWorkingStepRepo
	tasks    *MockTaskRepo
	projects *MockProjectRepo
	notify   *MockNotifier
}

func newTestStepGate() (StepGateService, *gateMocks) {
	m := &gateMocks{
		steps:    &MockWorkingStepRepo{},
		tasks:    &MockTaskRepo{},
		projects: &MockProjectRepo{},
		notify:   &MockNotifier{},
	}
	return NewStepGateService(m.steps, m.tasks, m.projects, m.notify, zap.NewNop()), m
}

func createTestStep(projectID uuid.UUID, order int, locked bool) *model.WorkingStep {
	s := &model.WorkingStep{
		ID:        uuid.New(),
		ProjectID: projectID,
		StepOrder: order,
		Name:      "step",
		IsLocked:  locked,
	}
	s.Version = 1
	return s
}

func requiredTask(status string) model.Task {
	return model.Task{ID: uuid.New(), IsRequired: true, CompletionStatus: status}
}

func optionalTask(status string) model.Task {
	return model.Task{ID: uuid.New(), IsRequired: false, CompletionStatus: status}
}

func TestStepGate_CheckAndUnlockNextStep(t *testing.T) {
	projectID := uuid.New()
	actor := uuid.New()

	tests := []struct {
		name   string
		setup  func(*gateMocks, *model.WorkingStep, *model.WorkingStep)
		unlock bool
	}{
		{
			name: "all required tasks done unlocks the next step",
			setup: func(m *gateMocks, step, next *model.WorkingStep) {
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{
					requiredTask(model.CompletionCompleted),
					optionalTask(model.CompletionPending),
				}, nil)
				m.steps.On("GetByProjectOrder", mock.Anything, projectID, 2).Return(next, nil)
				m.steps.On("UpdateStepGuarded", mock.Anything, next.ID, 1, actor, map[string]any{"is_locked": false}).Return(nil)
				m.projects.On("CreateActivity", mock.Anything, mock.MatchedBy(func(e *model.ActivityLog) bool {
					return e.Action == "step_unlocked"
				})).Return(nil)
				m.notify.On("Dispatch", mock.Anything, mock.Anything).Return()
			},
			unlock: true,
		},
		{
			name: "zero required tasks is vacuously satisfied",
			setup: func(m *gateMocks, step, next *model.WorkingStep) {
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{}, nil)
				m.steps.On("GetByProjectOrder", mock.Anything, projectID, 2).Return(next, nil)
				m.steps.On("UpdateStepGuarded", mock.Anything, next.ID, 1, actor, map[string]any{"is_locked": false}).Return(nil)
				m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)
				m.notify.On("Dispatch", mock.Anything, mock.Anything).Return()
			},
			unlock: true,
		},
		{
			name: "incomplete required task keeps the next step locked",
			setup: func(m *gateMocks, step, next *model.WorkingStep) {
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{
					requiredTask(model.CompletionCompleted),
					requiredTask(model.CompletionInProgress),
				}, nil)
			},
		},
		{
			name: "last step of the project is a no-op",
			setup: func(m *gateMocks, step, next *model.WorkingStep) {
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{
					requiredTask(model.CompletionCompleted),
				}, nil)
				m.steps.On("GetByProjectOrder", mock.Anything, projectID, 2).Return(nil, apperr.NotFound("working step"))
			},
		},
		{
			name: "already unlocked next step is idempotent",
			setup: func(m *gateMocks, step, next *model.WorkingStep) {
				next.IsLocked = false
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{
					requiredTask(model.CompletionCompleted),
				}, nil)
				m.steps.On("GetByProjectOrder", mock.Anything, projectID, 2).Return(next, nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := createTestStep(projectID, 1, false)
			next := createTestStep(projectID, 2, true)
			gate, m := newTestStepGate()
			tt.setup(m, step, next)

			err := gate.CheckAndUnlockNextStep(context.Background(), step.ID, actor)

			assert.NoError(t, err)
			if !tt.unlock {
				m.steps.AssertNotCalled(t, "UpdateStepGuarded", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			m.steps.AssertExpectations(t)
			m.tasks.AssertExpectations(t)
		})
	}
}

func TestStepGate_UnlockRace(t *testing.T) {
	projectID := uuid.New()
	actor := uuid.New()

	t.Run("conflict is swallowed when the racer already unlocked", func(t *testing.T) {
		step := createTestStep(projectID, 1, false)
		next := createTestStep(projectID, 2, true)
		fresh := createTestStep(projectID, 2, false)
		fresh.ID = next.ID
		fresh.Version = 2

		gate, m := newTestStepGate()
		m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
		m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
		m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{
			requiredTask(model.CompletionCompleted),
		}, nil)
		m.steps.On("GetByProjectOrder", mock.Anything, projectID, 2).Return(next, nil)
		m.steps.On("UpdateStepGuarded", mock.Anything, next.ID, 1, actor, mock.Anything).
			Return(apperr.VersionConflict("working step", 1))
		m.steps.On("Get", mock.Anything, next.ID).Return(fresh, nil)
		m.notify.On("Dispatch", mock.Anything, mock.Anything).Return()

		err := gate.CheckAndUnlockNextStep(context.Background(), step.ID, actor)

		assert.NoError(t, err)
		m.steps.AssertExpectations(t)
	})

	t.Run("conflict surfaces when the step is still locked", func(t *testing.T) {
		step := createTestStep(projectID, 1, false)
		next := createTestStep(projectID, 2, true)
		stillLocked := createTestStep(projectID, 2, true)
		stillLocked.ID = next.ID
		stillLocked.Version = 2

		gate, m := newTestStepGate()
		m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
		m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
		m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{
			requiredTask(model.CompletionCompleted),
		}, nil)
		m.steps.On("GetByProjectOrder", mock.Anything, projectID, 2).Return(next, nil)
		m.steps.On("UpdateStepGuarded", mock.Anything, next.ID, 1, actor, mock.Anything).
			Return(apperr.VersionConflict("working step", 1))
		m.steps.On("Get", mock.Anything, next.ID).Return(stillLocked, nil)

		err := gate.CheckAndUnlockNextStep(context.Background(), step.ID, actor)

		assert.ErrorIs(t, err, apperr.ErrVersionConflict)
	})
}

func TestStepGate_FirstStepRepair(t *testing.T) {
	projectID := uuid.New()
	actor := uuid.New()

	t.Run("locked first step is repaired before the check", func(t *testing.T) {
		step := createTestStep(projectID, 1, true)

		gate, m := newTestStepGate()
		m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
		m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
		m.steps.On("UpdateStepGuarded", mock.Anything, step.ID, 1, actor, map[string]any{"is_locked": false}).Return(nil)
		m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)
		m.tasks.On("ListByStep", mock.Anything, step.ID).Return([]model.Task{
			requiredTask(model.CompletionInProgress),
		}, nil)

		err := gate.CheckAndUnlockNextStep(context.Background(), step.ID, actor)

		assert.NoError(t, err)
		assert.False(t, step.IsLocked)
		m.steps.AssertExpectations(t)
	})
}

func TestStepGate_EvaluateLock(t *testing.T) {
	projectID := uuid.New()
	actor := uuid.New()

	tests := []struct {
		name       string
		step       func() *model.WorkingStep
		setup      func(*gateMocks, *model.WorkingStep)
		wantLocked bool
	}{
		{
			name: "first step is never locked",
			step: func() *model.WorkingStep { return createTestStep(projectID, 1, true) },
			setup: func(m *gateMocks, step *model.WorkingStep) {
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.steps.On("UpdateStepGuarded", mock.Anything, step.ID, 1, actor, mock.Anything).Return(nil)
				m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)
			},
			wantLocked: false,
		},
		{
			name: "stale lock is repaired when the predecessor finished",
			step: func() *model.WorkingStep { return createTestStep(projectID, 2, true) },
			setup: func(m *gateMocks, step *model.WorkingStep) {
				prev := createTestStep(projectID, 1, false)
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.steps.On("GetByProjectOrder", mock.Anything, projectID, 1).Return(prev, nil)
				m.tasks.On("ListByStep", mock.Anything, prev.ID).Return([]model.Task{
					requiredTask(model.CompletionCompleted),
				}, nil)
				m.steps.On("UpdateStepGuarded", mock.Anything, step.ID, 1, actor, mock.Anything).Return(nil)
				m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)
			},
			wantLocked: false,
		},
		{
			name: "legitimately locked step stays locked",
			step: func() *model.WorkingStep { return createTestStep(projectID, 2, true) },
			setup: func(m *gateMocks, step *model.WorkingStep) {
				prev := createTestStep(projectID, 1, false)
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.steps.On("GetByProjectOrder", mock.Anything, projectID, 1).Return(prev, nil)
				m.tasks.On("ListByStep", mock.Anything, prev.ID).Return([]model.Task{
					requiredTask(model.CompletionInProgress),
				}, nil)
			},
			wantLocked: true,
		},
		{
			name: "unlocked step passes through",
			step: func() *model.WorkingStep { return createTestStep(projectID, 2, false) },
			setup: func(m *gateMocks, step *model.WorkingStep) {
				prev := createTestStep(projectID, 1, false)
				m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
				m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
				m.steps.On("GetByProjectOrder", mock.Anything, projectID, 1).Return(prev, nil)
				m.tasks.On("ListByStep", mock.Anything, prev.ID).Return([]model.Task{
					requiredTask(model.CompletionInProgress),
				}, nil)
			},
			wantLocked: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			step := tt.step()
			gate, m := newTestStepGate()
			tt.setup(m, step)

			result, err := gate.EvaluateLock(context.Background(), step.ID, actor)

			assert.NoError(t, err)
			assert.NotNil(t, result)
			assert.Equal(t, tt.wantLocked, result.IsLocked)
			m.steps.AssertExpectations(t)
		})
	}
}

func TestStepGate_ListProjectSteps(t *testing.T) {
	projectID := uuid.New()
	actor := uuid.New()

	t.Run("ordered listing with legitimate locks preserved", func(t *testing.T) {
		first := createTestStep(projectID, 1, false)
		second := createTestStep(projectID, 2, true)
		gate, m := newTestStepGate()

		m.steps.On("ListByProject", mock.Anything, projectID).Return([]model.WorkingStep{*first, *second}, nil)
		m.tasks.On("ListByStep", mock.Anything, first.ID).Return([]model.Task{
			requiredTask(model.CompletionInProgress),
		}, nil)
		m.tasks.On("ListByStep", mock.Anything, second.ID).Return([]model.Task{}, nil)

		steps, err := gate.ListProjectSteps(context.Background(), projectID, actor)

		assert.NoError(t, err)
		assert.Len(t, steps, 2)
		assert.False(t, steps[0].IsLocked)
		assert.True(t, steps[1].IsLocked)
		m.steps.AssertNotCalled(t, "UpdateStepGuarded", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("stale lock repaired during listing", func(t *testing.T) {
		first := createTestStep(projectID, 1, false)
		second := createTestStep(projectID, 2, true)
		gate, m := newTestStepGate()

		m.steps.On("ListByProject", mock.Anything, projectID).Return([]model.WorkingStep{*first, *second}, nil)
		m.tasks.On("ListByStep", mock.Anything, first.ID).Return([]model.Task{
			requiredTask(model.CompletionCompleted),
		}, nil)
		m.tasks.On("ListByStep", mock.Anything, second.ID).Return([]model.Task{}, nil)
		m.steps.On("UpdateStepGuarded", mock.Anything, second.ID, 1, actor, map[string]any{"is_locked": false}).Return(nil)
		m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)

		steps, err := gate.ListProjectSteps(context.Background(), projectID, actor)

		assert.NoError(t, err)
		assert.Len(t, steps, 2)
		assert.False(t, steps[1].IsLocked)
		m.steps.AssertExpectations(t)
	})

	t.Run("locked first step repaired during listing", func(t *testing.T) {
		first := createTestStep(projectID, 1, true)
		gate, m := newTestStepGate()

		m.steps.On("ListByProject", mock.Anything, projectID).Return([]model.WorkingStep{*first}, nil)
		m.steps.On("UpdateStepGuarded", mock.Anything, first.ID, 1, actor, map[string]any{"is_locked": false}).Return(nil)
		m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)
		m.tasks.On("ListByStep", mock.Anything, first.ID).Return([]model.Task{}, nil)

		steps, err := gate.ListProjectSteps(context.Background(), projectID, actor)

		assert.NoError(t, err)
		assert.False(t, steps[0].IsLocked)
		m.steps.AssertExpectations(t)
	})
}

func TestStepGate_RepairLogSeverity(t *testing.T) {
	projectID := uuid.New()
	actor := uuid.New()

	newObservedGate := func() (StepGateService, *gateMocks, *observer.ObservedLogs) {
		m := &gateMocks{
			steps:    &MockWorkingStepRepo{},
			tasks:    &MockTaskRepo{},
			projects: &MockProjectRepo{},
			notify:   &MockNotifier{},
		}
		core, logs := observer.New(zapcore.WarnLevel)
		return NewStepGateService(m.steps, m.tasks, m.projects, m.notify, zap.New(core)), m, logs
	}

	t.Run("locked first step is reported as an error", func(t *testing.T) {
		step := createTestStep(projectID, 1, true)
		gate, m, logs := newObservedGate()

		m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
		m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
		m.steps.On("UpdateStepGuarded", mock.Anything, step.ID, 1, actor, mock.Anything).Return(nil)
		m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)

		_, err := gate.EvaluateLock(context.Background(), step.ID, actor)

		assert.NoError(t, err)
		entries := logs.FilterMessage("first working step found locked, repairing").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	})

	t.Run("stale later-step lock is reported as a warning", func(t *testing.T) {
		step := createTestStep(projectID, 2, true)
		prev := createTestStep(projectID, 1, false)
		gate, m, logs := newObservedGate()

		m.steps.On("Get", mock.Anything, step.ID).Return(step, nil)
		m.steps.On("MinOrder", mock.Anything, projectID).Return(1, nil)
		m.steps.On("GetByProjectOrder", mock.Anything, projectID, 1).Return(prev, nil)
		m.tasks.On("ListByStep", mock.Anything, prev.ID).Return([]model.Task{
			requiredTask(model.CompletionCompleted),
		}, nil)
		m.steps.On("UpdateStepGuarded", mock.Anything, step.ID, 1, actor, mock.Anything).Return(nil)
		m.projects.On("CreateActivity", mock.Anything, mock.Anything).Return(nil)

		_, err := gate.EvaluateLock(context.Background(), step.ID, actor)

		assert.NoError(t, err)
		entries := logs.FilterMessage("stale step lock detected, repairing").All()
		assert.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})
}
