package repo

import (
	"context"
	"errors"

	"github.com/auditflow-io/auditflow/internal/modules/model"
	"github.com/auditflow-io/auditflow/internal/pkg/apperr"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRepo interface {
	Create(ctx context.Context, m *model.Member) error
	Get(ctx context.Context, memberID uuid.UUID) (*model.Member, error)
	GetByKeyHMAC(ctx context.Context, digest string) (*model.Member, error)
	ListIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error)
}

type memberRepo struct{ db *gorm.DB }

func NewMemberRepo(db *gorm.DB) MemberRepo {
	return &memberRepo{db: db}
}

func (r *memberRepo) Create(ctx context.Context, m *model.Member) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *memberRepo) Get(ctx context.Context, memberID uuid.UUID) (*model.Member, error) {
	var m model.Member
	err := r.db.WithContext(ctx).Where("id = ?", memberID).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("member")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepo) GetByKeyHMAC(ctx context.Context, digest string) (*model.Member, error) {
	var m model.Member
	err := r.db.WithContext(ctx).Where(&model.Member{ApiKeyHMAC: digest}).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("member")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *memberRepo) ListIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	return ids, r.db.WithContext(ctx).Model(&model.Member{}).
		Where("role = ?", role).
		Pluck("id", &ids).Error
}
