package repository

import (
	"context"

	"github.com/smallbiznis/pharmapos/internal/feedback/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, feedback *domain.Feedback) error {
	return db.WithContext(ctx).Create(feedback).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, limit int) ([]domain.Row, error) {
	stmt := db.WithContext(ctx).
		Table("feedback").
		Select("feedback.*, users.name AS user_name").
		Joins("LEFT JOIN users ON users.id = feedback.user_id").
		Order("feedback.created_at DESC").
		Order("feedback.id DESC")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}

	var rows []domain.Row
	if err := stmt.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
