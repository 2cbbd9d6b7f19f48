package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vitrine-checkout/pkg/logger"
	"github.com/angelmondragon/vitrine-checkout/pkg/vitrine"
)

type orderSource interface {
	ListOrders(ctx context.Context, storeID int64, authorization string) ([]vitrine.CustomerOrders, error)
	RecentOrders(ctx context.Context, storeID int64, authorization string) ([]vitrine.CustomerOrders, error)
	Summary(ctx context.Context, storeID int64, authorization string) (*vitrine.Summary, error)
}

// Service serves the merchant order views. The merchant's Authorization
// header is forwarded untouched.
type Service interface {
	List(ctx context.Context, storeID int64, authorization string, filters Filters) ([]Row, error)
	Recent(ctx context.Context, storeID int64, authorization string) ([]Row, error)
	Summary(ctx context.Context, storeID int64, authorization string) (*vitrine.Summary, error)
}

type service struct {
	source orderSource
	loc    *time.Location
	clock  func() time.Time
	logg   *logger.Logger
}

// NewService wires the merchant order views. loc defaults to UTC and clock to time.Now.
func NewService(source orderSource, loc *time.Location, clock func() time.Time, logg *logger.Logger) (Service, error) {
	if source == nil {
		return nil, fmt.Errorf("order source required")
	}
	if loc == nil {
		loc = time.UTC
	}
	if clock == nil {
		clock = time.Now
	}
	return &service{source: source, loc: loc, clock: clock, logg: logg}, nil
}

func (s *service) List(ctx context.Context, storeID int64, authorization string, filters Filters) ([]Row, error) {
	customers, err := s.source.ListOrders(ctx, storeID, authorization)
	if err != nil {
		return nil, err
	}
	rows := Flatten(customers, s.loc)
	filtered := Apply(rows, filters, s.clock().In(s.loc))
	s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
		"orders_total":    len(rows),
		"orders_filtered": len(filtered),
	}), "merchant orders listed")
	return filtered, nil
}

func (s *service) Recent(ctx context.Context, storeID int64, authorization string) ([]Row, error) {
	customers, err := s.source.RecentOrders(ctx, storeID, authorization)
	if err != nil {
		return nil, err
	}
	return Apply(Flatten(customers, s.loc), Filters{}, s.clock().In(s.loc)), nil
}

func (s *service) Summary(ctx context.Context, storeID int64, authorization string) (*vitrine.Summary, error) {
	return s.source.Summary(ctx, storeID, authorization)
}
