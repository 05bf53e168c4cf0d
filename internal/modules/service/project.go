package service

import (
	"context"
	"fmt"
	"time"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/repo"
	"github.com/auditflow-io/auditflow/internal/pkg/paging"
	"github.com/auditflow-io/auditflow/internal/pkg/slug"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type ProjectService interface {
	// CreateFromTemplate instantiates a template into a project tree:
	// working steps, tasks and their approval chains. The first step is
	// created unlocked, every later step locked.
	CreateFromTemplate(ctx context.Context, in CreateProjectInput) (*model.Project, error)
	Get(ctx context.Context, projectID uuid.UUID) (*model.Project, error)
	List(ctx context.Context, in ListProjectsInput) (*ListProjectsOutput, error)
	Dashboard(ctx context.Context, projectID uuid.UUID) (*DashboardOutput, error)
}

type CreateProjectInput struct {
	ClientID   uuid.UUID
	TemplateID uuid.UUID
	Actor      uuid.UUID
	Name       string
	Year       int
}

type ListProjectsInput struct {
	ClientID *uuid.UUID
	Limit    int
	Cursor   string
	TimeDesc bool
}

type ListProjectsOutput struct {
	Items      []*model.Project `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
	HasMore    bool             `json:"has_more"`
}

type DashboardStep struct {
	ID        uuid.UUID `json:"id"`
	StepOrder int       `json:"step_order"`
	Name      string    `json:"name"`
	IsLocked  bool      `json:"is_locked"`
}

type DashboardOutput struct {
	ProjectID   uuid.UUID        `json:"project_id"`
	ProjectName string           `json:"project_name"`
	ClientName  string           `json:"client_name"`
	TaskCounts  map[string]int64 `json:"task_counts"`
	Steps       []DashboardStep  `json:"steps"`
}

type projectService struct {
	r         repo.ProjectRepo
	steps     repo.WorkingStepRepo
	templates repo.TemplateRepo
	cache     *DashboardCache
	log       *zap.Logger
}

func NewProjectService(r repo.ProjectRepo, steps repo.WorkingStepRepo, templates repo.TemplateRepo, cache *DashboardCache, log *zap.Logger) ProjectService {
	return &projectService{r: r, steps: steps, templates: templates, cache: cache, log: log}
}

func (s *projectService) CreateFromTemplate(ctx context.Context, in CreateProjectInput) (*model.Project, error) {
	client, err := s.r.GetClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}
	tpl, err := s.templates.GetWithTree(ctx, in.TemplateID)
	if err != nil {
		return nil, err
	}
	if len(tpl.Steps) == 0 {
		return nil, fmt.Errorf("template %q has no steps", tpl.Name)
	}

	projectSlug, err := slug.Unique(fmt.Sprintf("%s %s %d", client.Name, in.Name, in.Year), func(candidate string, excludeID uuid.UUID) (bool, error) {
		return s.r.SlugExists(ctx, candidate, excludeID)
	}, uuid.Nil)
	if err != nil {
		return nil, err
	}

	project := &model.Project{
		ClientID:   client.ID,
		Name:       in.Name,
		Slug:       projectSlug,
		Year:       in.Year,
		ClientName: client.Name,
	}

	minOrder := tpl.Steps[0].StepOrder
	for _, st := range tpl.Steps {
		if st.StepOrder < minOrder {
			minOrder = st.StepOrder
		}
	}

	steps := make([]model.WorkingStep, 0, len(tpl.Steps))
	tasksByStep := make(map[int][]model.Task)
	approvalsByTask := make(map[int]map[int][]model.TaskApproval)

	for _, st := range tpl.Steps {
		steps = append(steps, model.WorkingStep{
			StepOrder:   st.StepOrder,
			Name:        st.Name,
			IsLocked:    st.StepOrder != minOrder,
			ProjectName: in.Name,
			ClientName:  client.Name,
		})
		approvalsByTask[st.StepOrder] = make(map[int][]model.TaskApproval)

		for _, tt := range st.Tasks {
			tasksByStep[st.StepOrder] = append(tasksByStep[st.StepOrder], model.Task{
				TaskOrder:        tt.TaskOrder,
				Name:             tt.Name,
				CompletionStatus: model.CompletionPending,
				IsRequired:       tt.IsRequired,
				ClientInteract:   tt.ClientInteract,
				ProjectName:      in.Name,
				ClientName:       client.Name,
			})

			var approvals []model.TaskApproval
			for _, level := range tt.ApprovalChain {
				approvals = append(approvals, model.TaskApproval{
					ApprovalOrder: level.Order,
					Role:          level.Role,
				})
			}
			approvalsByTask[st.StepOrder][tt.TaskOrder] = approvals
		}
	}

	if err := s.r.CreateTree(ctx, project, steps, tasksByStep, approvalsByTask); err != nil {
		return nil, fmt.Errorf("instantiate template: %w", err)
	}

	if err := s.r.CreateActivity(ctx, &model.ActivityLog{
		ProjectID: project.ID,
		Target:    model.ProjectRef(project.ID),
		Action:    "project_created",
		ActorID:   in.Actor,
		Detail:    datatypes.JSONMap{"template_id": tpl.ID.String(), "slug": projectSlug},
	}); err != nil {
		s.log.Sugar().Warnw("activity log write failed", "action", "project_created", "err", err)
	}
	return project, nil
}

func (s *projectService) Get(ctx context.Context, projectID uuid.UUID) (*model.Project, error) {
	return s.r.Get(ctx, projectID)
}

func (s *projectService) List(ctx context.Context, in ListProjectsInput) (*ListProjectsOutput, error) {
	var afterT time.Time
	var afterID uuid.UUID
	var err error
	if in.Cursor != "" {
		afterT, afterID, err = paging.DecodeCursor(in.Cursor)
		if err != nil {
			return nil, err
		}
	}

	items, err := s.r.ListWithCursor(ctx, in.ClientID, afterT, afterID, in.Limit+1, in.TimeDesc)
	if err != nil {
		return nil, err
	}

	out := &ListProjectsOutput{Items: items}
	if len(items) > in.Limit {
		out.HasMore = true
		out.Items = items[:in.Limit]
		last := out.Items[len(out.Items)-1]
		out.NextCursor = paging.EncodeCursor(last.CreatedAt, last.ID)
	}
	return out, nil
}

func (s *projectService) Dashboard(ctx context.Context, projectID uuid.UUID) (*DashboardOutput, error) {
	var cached DashboardOutput
	if s.cache.Get(ctx, projectID, &cached) {
		return &cached, nil
	}

	project, err := s.r.Get(ctx, projectID)
	if err != nil {
		return nil, err
	}
	counts, err := s.r.CountTasksByCompletion(ctx, projectID)
	if err != nil {
		return nil, err
	}
	steps, err := s.steps.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	out := &DashboardOutput{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ClientName:  project.ClientName,
		TaskCounts:  counts,
	}
	for _, st := range steps {
		out.Steps = append(out.Steps, DashboardStep{
			ID:        st.ID,
			StepOrder: st.StepOrder,
			Name:      st.Name,
			IsLocked:  st.IsLocked,
		})
	}

	s.cache.Set(ctx, projectID, out)
	return out, nil
}
