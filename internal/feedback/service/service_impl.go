package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/internal/clock"
	"github.com/smallbiznis/pharmapos/internal/feedback/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	minMessageLength = 5
	maxMessageLength = 5000
	listLimit        = 200
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("feedback.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	if req.UserID == 0 {
		return nil, domain.ErrInvalidUser
	}
	message := strings.TrimSpace(req.Message)
	if n := utf8.RuneCountInString(message); n < minMessageLength || n > maxMessageLength {
		return nil, domain.ErrInvalidMessage
	}

	item := &domain.Feedback{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Message:   message,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Create(ctx, s.db, item); err != nil {
		return nil, err
	}

	s.log.Info("feedback submitted", zap.String("feedback_id", item.ID.String()))
	resp := toResponse(item, "")
	return &resp, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	rows, err := s.repo.List(ctx, s.db, listLimit)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(rows))
	for i := range rows {
		resp = append(resp, toResponse(&rows[i].Feedback, rows[i].UserName))
	}
	return resp, nil
}

func toResponse(f *domain.Feedback, userName string) domain.Response {
	return domain.Response{
		ID:        f.ID.String(),
		UserID:    f.UserID.String(),
		UserName:  userName,
		Message:   f.Message,
		CreatedAt: f.CreatedAt,
	}
}
