package service

import (
	"context"
	"fmt"

	"github.com/auditflow-io/auditflow/internal/config"
	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/modules/repo"
	"github.com/auditflow-io/auditflow/internal/pkg/utils"
	"github.com/auditflow-io/auditflow/internal/pkg/utils/tokens"
	"github.com/google/uuid"
)

type MemberService interface {
	// Create returns the member together with the raw API key. The key is
	// shown exactly once; only its HMAC is stored.
	Create(ctx context.Context, name, role string) (*model.Member, string, error)
	Get(ctx context.Context, memberID uuid.UUID) (*model.Member, error)
}

type memberService struct {
	r   repo.MemberRepo
	cfg *config.Config
}

func NewMemberService(r repo.MemberRepo, cfg *config.Config) MemberService {
	return &memberService{r: r, cfg: cfg}
}

func (s *memberService) Create(ctx context.Context, name, role string) (*model.Member, string, error) {
	key, err := utils.GenerateKey(s.cfg.Auth.ApiKeyPrefix)
	if err != nil {
		return nil, "", fmt.Errorf("generate api key: %w", err)
	}
	secret, _ := tokens.ParseToken(key, s.cfg.Auth.ApiKeyPrefix)

	m := &model.Member{
		Name:       name,
		Role:       role,
		ApiKeyHMAC: tokens.HMAC256Hex(s.cfg.Auth.SecretPepper, secret),
	}
	if err := s.r.Create(ctx, m); err != nil {
		return nil, "", err
	}
	return m, key, nil
}

func (s *memberService) Get(ctx context.Context, memberID uuid.UUID) (*model.Member, error) {
	return s.r.Get(ctx, memberID)
}
