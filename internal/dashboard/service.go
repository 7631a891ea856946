package dashboard

import (
	"context"

	"github.com/smallbiznis/pharmapos/internal/clock"
	"github.com/smallbiznis/pharmapos/internal/config"
	productdomain "github.com/smallbiznis/pharmapos/internal/product/domain"
	txdomain "github.com/smallbiznis/pharmapos/internal/transaction/domain"
	txservice "github.com/smallbiznis/pharmapos/internal/transaction/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Summary is the landing page overview for the current store day.
type Summary struct {
	Date          string         `json:"date"`
	TotalSales    string         `json:"total_sales"`
	CustomerCount int64          `json:"customer_count"`
	LowStock      []LowStockItem `json:"low_stock"`
	Threshold     int            `json:"low_stock_threshold"`
}

type LowStockItem struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	Clock        clock.Clock
	Store        *config.StoreConfigHolder
	Products     productdomain.Repository
	Transactions txdomain.Repository
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	clock        clock.Clock
	store        *config.StoreConfigHolder
	products     productdomain.Repository
	transactions txdomain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("dashboard.service"),
		clock:        p.Clock,
		store:        p.Store,
		products:     p.Products,
		transactions: p.Transactions,
	}
}

// Summary counts today's transactions in the store timezone and lists
// products at or below the configured low stock threshold.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	store := s.store.Get()
	loc := store.Location()
	today := clock.Today(s.clock, loc)

	from, to, err := txservice.DayBounds(today, loc)
	if err != nil {
		return nil, err
	}

	totals, err := s.transactions.Summarize(ctx, s.db, from, to)
	if err != nil {
		s.log.Error("failed to summarize transactions", zap.Error(err))
		return nil, err
	}

	products, err := s.products.ListLowStock(ctx, s.db, store.LowStockThreshold)
	if err != nil {
		s.log.Error("failed to list low stock products", zap.Error(err))
		return nil, err
	}

	low := make([]LowStockItem, 0, len(products))
	for _, p := range products {
		low = append(low, LowStockItem{
			ID:    p.ID.String(),
			Code:  p.Code,
			Name:  p.Name,
			Stock: p.Stock,
		})
	}

	return &Summary{
		Date:          today,
		TotalSales:    totals.Total.StringFixed(2),
		CustomerCount: totals.Count,
		LowStock:      low,
		Threshold:     store.LowStockThreshold,
	}, nil
}
