package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/internal/config"
	"github.com/smallbiznis/pharmapos/internal/transaction/domain"
	"github.com/smallbiznis/pharmapos/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Store *config.StoreConfigHolder
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	store *config.StoreConfigHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("transaction.service"),
		repo:  p.Repo,
		store: p.Store,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (domain.ListResponse, error) {
	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return domain.ListResponse{}, err
	}

	filter := domain.ListFilter{Cursor: cursor}
	if date := strings.TrimSpace(req.Date); date != "" {
		from, to, err := DayBounds(date, s.store.Get().Location())
		if err != nil {
			return domain.ListResponse{}, err
		}
		filter.From, filter.To = &from, &to
	}

	limit := req.Pagination.Limit()
	filter.Limit = limit + 1

	rows, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListResponse{}, err
	}

	page, info := pagination.BuildCursorPageInfo(rows, limit, func(r domain.Row) pagination.Cursor {
		return pagination.NewCursor(r.ID.String(), r.CreatedAt)
	})

	resp := domain.ListResponse{PageInfo: info, Transactions: make([]domain.Response, 0, len(page))}
	for i := range page {
		resp.Transactions = append(resp.Transactions, domain.NewResponse(&page[i].Transaction, page[i].CashierName))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	txID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || txID == 0 {
		return nil, domain.ErrInvalidID
	}

	row, err := s.repo.FindByID(ctx, s.db, txID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrNotFound
	}

	resp := domain.NewResponse(&row.Transaction, row.CashierName)
	return &resp, nil
}

// DayBounds returns the UTC instants of local midnight on date and the
// following local midnight.
func DayBounds(date string, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(date), loc)
	if err != nil {
		return time.Time{}, time.Time{}, domain.ErrInvalidDate
	}
	return day.UTC(), day.AddDate(0, 0, 1).UTC(), nil
}
