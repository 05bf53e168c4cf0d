package service

import (
	"context"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/repo"
	"github.com/auditflow-io/auditflow/internal/pkg/slug"
	"github.com/google/uuid"
)

type TemplateService interface {
	Create(ctx context.Context, tpl *model.ProjectTemplate) error
	Get(ctx context.Context, templateID uuid.UUID) (*model.ProjectTemplate, error)
	List(ctx context.Context) ([]model.ProjectTemplate, error)
	Rename(ctx context.Context, templateID uuid.UUID, name string) (*model.ProjectTemplate, error)
}

type templateService struct{ r repo.TemplateRepo }

func NewTemplateService(r repo.TemplateRepo) TemplateService {
	return &templateService{r: r}
}

func (s *templateService) slugExists(ctx context.Context) slug.ExistsFunc {
	return func(candidate string, excludeID uuid.UUID) (bool, error) {
		return s.r.SlugExists(ctx, candidate, excludeID)
	}
}

func (s *templateService) Create(ctx context.Context, tpl *model.ProjectTemplate) error {
	unique, err := slug.Unique(tpl.Name, s.slugExists(ctx), uuid.Nil)
	if err != nil {
		return err
	}
	tpl.Slug = unique
	return s.r.Create(ctx, tpl)
}

func (s *templateService) Get(ctx context.Context, templateID uuid.UUID) (*model.ProjectTemplate, error) {
	return s.r.GetWithTree(ctx, templateID)
}

func (s *templateService) List(ctx context.Context) ([]model.ProjectTemplate, error) {
	return s.r.List(ctx)
}

func (s *templateService) Rename(ctx context.Context, templateID uuid.UUID, name string) (*model.ProjectTemplate, error) {
	unique, err := slug.Unique(name, s.slugExists(ctx), templateID)
	if err != nil {
		return nil, err
	}
	if err := s.r.Rename(ctx, templateID, name, unique); err != nil {
		return nil, err
	}
	return s.r.GetWithTree(ctx, templateID)
}
