package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/pharmapos/internal/transaction/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, tx *domain.Transaction) error {
	return db.WithContext(ctx).Create(tx).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Row, error) {
	var row domain.Row
	err := withCashier(db.WithContext(ctx)).
		Where("transactions.id = ?", id).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, key string) (*domain.Transaction, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, nil
	}

	var t domain.Transaction
	err := db.WithContext(ctx).Where("idempotency_key = ?", key).Take(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Row, error) {
	stmt := withCashier(db.WithContext(ctx))
	if filter.From != nil {
		stmt = stmt.Where("transactions.created_at >= ?", filter.From.UTC())
	}
	if filter.To != nil {
		stmt = stmt.Where("transactions.created_at < ?", filter.To.UTC())
	}
	if filter.Cursor != nil {
		at, err := filter.Cursor.Time()
		if err != nil {
			return nil, err
		}
		id, err := snowflake.ParseString(filter.Cursor.ID)
		if err != nil {
			return nil, err
		}
		at = at.UTC()
		stmt = stmt.Where(
			"(transactions.created_at < ?) OR (transactions.created_at = ? AND transactions.id < ?)",
			at, at, id,
		)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var rows []domain.Row
	err := stmt.
		Order("transactions.created_at DESC").
		Order("transactions.id DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Summarize(ctx context.Context, db *gorm.DB, from, to time.Time) (domain.Summary, error) {
	var out struct {
		Count int64
		Total decimal.NullDecimal
	}
	err := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Select("COUNT(*) AS count, SUM(total) AS total").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Scan(&out).Error
	if err != nil {
		return domain.Summary{}, err
	}

	total := decimal.Zero
	if out.Total.Valid {
		total = out.Total.Decimal
	}
	return domain.Summary{Count: out.Count, Total: total.Round(2)}, nil
}

func withCashier(db *gorm.DB) *gorm.DB {
	return db.Table("transactions").
		Select("transactions.*, users.name AS cashier_name").
		Joins("LEFT JOIN users ON users.id = transactions.user_id")
}
