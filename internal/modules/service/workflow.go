package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/repo"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// WorkflowService drives the sequential approval chain of a task. Every
// state transition goes through the version-guarded task write, so two
// actors racing on the same level leave exactly one winner; the loser gets
// a version conflict and must re-read.
type WorkflowService interface {
	GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error)
	Submit(ctx context.Context, in SubmitInput) (*model.Task, error)
	Approve(ctx context.Context, in ApproveInput) (*model.Task, error)
	Reject(ctx context.Context, in RejectInput) (*model.Task, error)
	// CompleteClientAction closes a task that was handed to the client
	// after its internal chain finished.
	CompleteClientAction(ctx context.Context, in ClientActionInput) (*model.Task, error)
	AttachDocument(ctx context.Context, in AttachDocumentInput) (*model.Document, error)
}

type SubmitInput struct {
	TaskID          uuid.UUID
	Actor           uuid.UUID
	ActorRole       string
	ExpectedVersion int
	Comments        string
	Notes           string
}

type ApproveInput struct {
	TaskID          uuid.UUID
	Actor           uuid.UUID
	ActorRole       string
	ExpectedVersion int
}

type RejectInput struct {
	TaskID          uuid.UUID
	Actor           uuid.UUID
	ActorRole       string
	ExpectedVersion int
	Reason          string
}

type ClientActionInput struct {
	TaskID          uuid.UUID
	Actor           uuid.UUID
	ActorRole       string
	ExpectedVersion int
}

type AttachDocumentInput struct {
	TaskID   uuid.UUID
	Actor    uuid.UUID
	Filename string
	Meta     map[string]any
}

type workflowService struct {
	tasks    repo.TaskRepo
	members  repo.MemberRepo
	projects repo.ProjectRepo
	gate     StepGateService
	notify   Notifier
	cache    *DashboardCache
	log      *zap.Logger
}

func NewWorkflowService(tasks repo.TaskRepo, members repo.MemberRepo, projects repo.ProjectRepo, gate StepGateService, notify Notifier, cache *DashboardCache, log *zap.Logger) WorkflowService {
	return &workflowService{
		tasks:    tasks,
		members:  members,
		projects: projects,
		gate:     gate,
		notify:   notify,
		cache:    cache,
		log:      log,
	}
}

func (s *workflowService) GetTask(ctx context.Context, taskID uuid.UUID) (*model.Task, error) {
	return s.tasks.GetWithChain(ctx, taskID)
}

// activeLevel returns the single level currently in progress. Approvals are
// ordered ascending by the repo.
func activeLevel(t *model.Task) *model.TaskApproval {
	for i := range t.Approvals {
		if t.Approvals[i].ApprovalStatus == model.ApprovalProgress {
			return &t.Approvals[i]
		}
	}
	return nil
}

// rejectedLevel returns the level awaiting re-submission, if any.
func rejectedLevel(t *model.Task) *model.TaskApproval {
	for i := range t.Approvals {
		if t.Approvals[i].ApprovalStatus == model.ApprovalReject {
			return &t.Approvals[i]
		}
	}
	return nil
}

// chainComplete reports whether every approval level has been completed.
func chainComplete(t *model.Task) bool {
	if len(t.Approvals) == 0 {
		return false
	}
	for i := range t.Approvals {
		if t.Approvals[i].ApprovalStatus != model.ApprovalComplete {
			return false
		}
	}
	return true
}

func nextLevel(t *model.Task, after *model.TaskApproval) *model.TaskApproval {
	for i := range t.Approvals {
		if t.Approvals[i].ApprovalOrder > after.ApprovalOrder {
			return &t.Approvals[i]
		}
	}
	return nil
}

func (s *workflowService) Submit(ctx context.Context, in SubmitInput) (*model.Task, error) {
	task, err := s.tasks.GetWithChain(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if len(task.Approvals) == 0 {
		return nil, apperr.InvalidTransition("task has no approval chain")
	}
	if task.CompletionStatus == model.CompletionCompleted {
		return nil, apperr.InvalidTransition("task is already completed")
	}
	if activeLevel(task) != nil {
		return nil, apperr.InvalidTransition("task is already under review")
	}

	// Either a fresh submission (level 1) or a re-submission after reject.
	target := rejectedLevel(task)
	if target == nil {
		if task.CompletionStatus != model.CompletionPending {
			return nil, apperr.InvalidTransition("task is not in a submittable state")
		}
		target = &task.Approvals[0]
	}

	target.ApprovalStatus = model.ApprovalProgress
	if err := s.tasks.UpdateTaskGuarded(ctx, task.ID, in.ExpectedVersion, in.Actor, map[string]any{
		"completion_status": model.CompletionInProgress,
		"status":            target.Label(),
	}); err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateApprovalStatus(ctx, target.ID, model.ApprovalProgress); err != nil {
		return nil, fmt.Errorf("advance approval level: %w", err)
	}

	now := time.Now().UTC()
	assignment, err := s.tasks.GetAssignment(ctx, task.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		err = s.tasks.CreateAssignment(ctx, &model.TaskAssignment{
			TaskID:      task.ID,
			MakerID:     in.Actor,
			MakerRole:   in.ActorRole,
			Comments:    in.Comments,
			Notes:       in.Notes,
			SubmittedAt: &now,
		})
		if err != nil {
			return nil, fmt.Errorf("create assignment: %w", err)
		}
	case err != nil:
		return nil, err
	default:
		err = s.tasks.UpdateAssignmentGuarded(ctx, assignment.ID, assignment.Version, in.Actor, map[string]any{
			"comments":     in.Comments,
			"notes":        in.Notes,
			"submitted_at": now,
			"returned_at":  nil,
		})
		if err != nil {
			return nil, fmt.Errorf("update assignment: %w", err)
		}
	}

	s.logActivity(ctx, task, in.Actor, "task_submitted", datatypes.JSONMap{
		"level_order": target.ApprovalOrder,
		"level_role":  target.Role,
	})
	s.notifyRole(ctx, task, target.Role, EventWorkerTaskUpdate,
		fmt.Sprintf("task %q submitted for %s review", task.Name, target.Role))
	s.cache.Invalidate(ctx, task.ProjectID)

	return s.tasks.GetWithChain(ctx, task.ID)
}

func (s *workflowService) Approve(ctx context.Context, in ApproveInput) (*model.Task, error) {
	task, err := s.tasks.GetWithChain(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}

	current := activeLevel(task)
	if current == nil {
		return nil, apperr.InvalidTransition("task has no active approval level")
	}
	if current.Role != in.ActorRole {
		return nil, apperr.RoleMismatch(in.ActorRole, current.Role)
	}

	next := nextLevel(task, current)

	// The guarded task write is the serialization point: the loser of a
	// race observes the conflict before any approval row changes.
	current.ApprovalStatus = model.ApprovalComplete
	changes := map[string]any{}
	switch {
	case next != nil:
		next.ApprovalStatus = model.ApprovalProgress
		changes["status"] = next.Label()
	case task.ClientFacing():
		changes["status"] = model.StatusSubmittedToClient
	default:
		changes["status"] = current.Label()
		changes["completion_status"] = model.CompletionCompleted
	}
	if err := s.tasks.UpdateTaskGuarded(ctx, task.ID, in.ExpectedVersion, in.Actor, changes); err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateApprovalStatus(ctx, current.ID, model.ApprovalComplete); err != nil {
		return nil, fmt.Errorf("complete approval level: %w", err)
	}

	switch {
	case next != nil:
		if err := s.tasks.UpdateApprovalStatus(ctx, next.ID, model.ApprovalProgress); err != nil {
			return nil, fmt.Errorf("advance approval level: %w", err)
		}
		s.logActivity(ctx, task, in.Actor, "approval_advanced", datatypes.JSONMap{
			"from_role": current.Role,
			"to_role":   next.Role,
		})
		s.notifyRole(ctx, task, next.Role, EventApprovalAdvanced,
			fmt.Sprintf("task %q awaits %s approval", task.Name, next.Role))

	case task.ClientFacing():
		s.logActivity(ctx, task, in.Actor, "submitted_to_client", nil)
		s.notifyRole(ctx, task, model.RoleClient, EventActionRequired,
			fmt.Sprintf("task %q requires your action", task.Name))

	default:
		s.logActivity(ctx, task, in.Actor, "task_completed", nil)
		s.notify.Dispatch(ctx, Event{
			TaskID:    &task.ID,
			ProjectID: task.ProjectID,
			EventKind: EventTaskCompleted,
			Message:   fmt.Sprintf("task %q completed", task.Name),
		})
		// Unlock check runs synchronously in the same request, right after
		// the guarded update commits.
		if err := s.gate.CheckAndUnlockNextStep(ctx, task.WorkingStepID, in.Actor); err != nil {
			s.log.Sugar().Errorw("unlock check failed after task completion",
				"task_id", task.ID, "step_id", task.WorkingStepID, "err", err)
		}
	}

	s.cache.Invalidate(ctx, task.ProjectID)
	return s.tasks.GetWithChain(ctx, task.ID)
}

func (s *workflowService) Reject(ctx context.Context, in RejectInput) (*model.Task, error) {
	task, err := s.tasks.GetWithChain(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}

	current := activeLevel(task)
	if current == nil {
		return nil, apperr.InvalidTransition("task has no active approval level")
	}
	if current.Role != in.ActorRole {
		return nil, apperr.RoleMismatch(in.ActorRole, current.Role)
	}

	current.ApprovalStatus = model.ApprovalReject
	if err := s.tasks.UpdateTaskGuarded(ctx, task.ID, in.ExpectedVersion, in.Actor, map[string]any{
		"status": current.Label(),
	}); err != nil {
		return nil, err
	}

	if err := s.tasks.UpdateApprovalStatus(ctx, current.ID, model.ApprovalReject); err != nil {
		return nil, fmt.Errorf("reject approval level: %w", err)
	}

	now := time.Now().UTC()
	assignment, err := s.tasks.GetAssignment(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if err := s.tasks.UpdateAssignmentGuarded(ctx, assignment.ID, assignment.Version, in.Actor, map[string]any{
		"notes":       in.Reason,
		"returned_at": now,
	}); err != nil {
		return nil, fmt.Errorf("return assignment: %w", err)
	}

	s.logActivity(ctx, task, in.Actor, "task_rejected", datatypes.JSONMap{
		"level_role": current.Role,
		"reason":     in.Reason,
	})
	s.notify.Dispatch(ctx, Event{
		TaskID:        &task.ID,
		ProjectID:     task.ProjectID,
		TargetUserIDs: []uuid.UUID{assignment.MakerID},
		EventKind:     EventWorkerTaskUpdate,
		Message:       fmt.Sprintf("task %q returned by %s: %s", task.Name, current.Role, in.Reason),
	})
	s.cache.Invalidate(ctx, task.ProjectID)

	return s.tasks.GetWithChain(ctx, task.ID)
}

func (s *workflowService) CompleteClientAction(ctx context.Context, in ClientActionInput) (*model.Task, error) {
	task, err := s.tasks.GetWithChain(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}
	if in.ActorRole != model.RoleClient {
		return nil, apperr.RoleMismatch(in.ActorRole, model.RoleClient)
	}
	if task.CompletionStatus == model.CompletionCompleted {
		return nil, apperr.InvalidTransition("task is already completed")
	}
	// Awaiting the client means the internal chain has fully approved a
	// client-facing task; derived from machine state, never from the label.
	if !task.ClientFacing() || !chainComplete(task) {
		return nil, apperr.InvalidTransition("task is not awaiting client action")
	}

	if err := s.tasks.UpdateTaskGuarded(ctx, task.ID, in.ExpectedVersion, in.Actor, map[string]any{
		"completion_status": model.CompletionCompleted,
	}); err != nil {
		return nil, err
	}

	s.logActivity(ctx, task, in.Actor, "client_action_completed", nil)
	s.notify.Dispatch(ctx, Event{
		TaskID:    &task.ID,
		ProjectID: task.ProjectID,
		EventKind: EventTaskCompleted,
		Message:   fmt.Sprintf("task %q completed by client", task.Name),
	})
	if err := s.gate.CheckAndUnlockNextStep(ctx, task.WorkingStepID, in.Actor); err != nil {
		s.log.Sugar().Errorw("unlock check failed after client action",
			"task_id", task.ID, "step_id", task.WorkingStepID, "err", err)
	}
	s.cache.Invalidate(ctx, task.ProjectID)

	return s.tasks.GetWithChain(ctx, task.ID)
}

func (s *workflowService) AttachDocument(ctx context.Context, in AttachDocumentInput) (*model.Document, error) {
	task, err := s.tasks.GetWithChain(ctx, in.TaskID)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{
		TaskID:     task.ID,
		Filename:   in.Filename,
		UploadedBy: in.Actor,
		AssetMeta:  in.Meta,
	}
	if err := s.tasks.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}

	s.logActivity(ctx, task, in.Actor, "document_attached", datatypes.JSONMap{
		"filename": in.Filename,
	})
	return doc, nil
}

func (s *workflowService) notifyRole(ctx context.Context, task *model.Task, role, kind, message string) {
	targets, err := s.members.ListIDsByRole(ctx, role)
	if err != nil {
		s.log.Sugar().Warnw("resolve notification targets failed", "role", role, "err", err)
	}
	s.notify.Dispatch(ctx, Event{
		TaskID:        &task.ID,
		ProjectID:     task.ProjectID,
		TargetUserIDs: targets,
		EventKind:     kind,
		Message:       message,
	})
}

func (s *workflowService) logActivity(ctx context.Context, task *model.Task, actor uuid.UUID, action string, detail datatypes.JSONMap) {
	if err := s.projects.CreateActivity(ctx, &model.ActivityLog{
		ProjectID: task.ProjectID,
		Target:    model.TaskRef(task.ID),
		Action:    action,
		ActorID:   actor,
		Detail:    detail,
	}); err != nil {
		s.log.Sugar().Warnw("activity log write failed", "action", action, "err", err)
	}
}
