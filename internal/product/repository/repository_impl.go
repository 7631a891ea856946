package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pharmapos/internal/product/domain"
	"github.com/smallbiznis/pharmapos/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

var sortableColumns = map[string]bool{
	"name":       true,
	"stock":      true,
	"price":      true,
	"created_at": true,
	"updated_at": true,
}

func (r *repo) Create(ctx context.Context, conn *gorm.DB, product *domain.Product) error {
	return conn.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := conn.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindByIDs(ctx context.Context, conn *gorm.DB, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Product
	if err := conn.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, conn *gorm.DB, filter domain.ListRequest) ([]domain.Product, error) {
	var items []domain.Product
	stmt := conn.WithContext(ctx).Model(&domain.Product{})

	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}

	column := strings.ToLower(strings.TrimSpace(filter.SortBy))
	if !sortableColumns[column] {
		column = "name"
	}
	desc := strings.EqualFold(strings.TrimSpace(filter.OrderBy), "desc")
	stmt = stmt.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListLowStock(ctx context.Context, conn *gorm.DB, threshold int) ([]domain.Product, error) {
	var items []domain.Product
	err := conn.WithContext(ctx).
		Where("stock <= ?", threshold).
		Order("stock ASC").
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) Update(ctx context.Context, conn *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return conn.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":       product.Name,
			"stock":      product.Stock,
			"price":      product.Price,
			"updated_at": product.UpdatedAt,
		}).Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) (bool, error) {
	tx := conn.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected > 0, nil
}

func (r *repo) LockByIDs(ctx context.Context, conn *gorm.DB, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	stmt := conn.WithContext(ctx).Where("id IN ?", ids).Order("id ASC")
	if db.SupportsRowLocks(conn) {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var items []domain.Product
	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) DecrementStock(ctx context.Context, conn *gorm.DB, id snowflake.ID, qty int, at time.Time) (bool, error) {
	tx := conn.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		qty,
		at,
		id,
		qty,
	)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}
