package services

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/app/repositories"
	"github.com/shashiranjanraj/sehatly/pkg/cache"
	"github.com/shashiranjanraj/sehatly/pkg/collection"
)

// costRatio is the assumed cost share of revenue until per-medicine
// purchase prices are tracked.
const costRatio = 0.7

// analyticsTTL caps how stale a cached dashboard figure can be.
const analyticsTTL = 60 * time.Second

// AnalyticsReader is the data access the dashboard metrics need.
type AnalyticsReader interface {
	All(ctx context.Context) ([]models.Order, error)
	Count(ctx context.Context) (int64, error)
	CreatedSince(ctx context.Context, since time.Time) ([]models.Order, error)
	CreatedBetween(ctx context.Context, from, to time.Time) ([]models.Order, error)
	AllDetails(ctx context.Context) ([]models.OrderDetail, error)
	TopMedicines(ctx context.Context, limit int) ([]repositories.TopSeller, error)
}

// UserCounter supplies the customer base for per-customer metrics.
type UserCounter interface {
	All(ctx context.Context) ([]models.User, error)
}

// AnalyticsService computes the admin dashboard figures. Every result
// is cached in Redis for a short window; with the cache down the
// figures are computed fresh on each request.
type AnalyticsService struct {
	orders   AnalyticsReader
	users    UserCounter
	visitors int
	now      func() time.Time
}

func NewAnalyticsService(orders AnalyticsReader, users UserCounter, visitors int) *AnalyticsService {
	return &AnalyticsService{
		orders:   orders,
		users:    users,
		visitors: visitors,
		now:      time.Now,
	}
}

// RevenueSummary is the total-revenue endpoint payload.
type RevenueSummary struct {
	TotalRevenue float64 `json:"totalRevenue"`
	Monthly      float64 `json:"monthly"`
	Refunds      float64 `json:"refunds"`
}

// TotalRevenue sums totalPrice across all orders.
func (s *AnalyticsService) TotalRevenue(ctx context.Context) (RevenueSummary, error) {
	var cached RevenueSummary
	if cache.Get("analytics:total-revenue", &cached) {
		return cached, nil
	}

	orders, err := s.orders.All(ctx)
	if err != nil {
		return RevenueSummary{}, err
	}
	total := collection.Sum(orders, func(o models.Order) float64 { return o.TotalPrice })
	out := RevenueSummary{TotalRevenue: total, Monthly: total}
	_ = cache.Set("analytics:total-revenue", out, analyticsTTL)
	return out, nil
}

// ProfitReport is the profit-margin endpoint payload.
type ProfitReport struct {
	Profit float64 `json:"profit"`
	Cost   float64 `json:"cost"`
	Margin float64 `json:"margin"`
}

// ProfitMargin derives profit from line-item revenue using the
// assumed cost ratio.
func (s *AnalyticsService) ProfitMargin(ctx context.Context) (ProfitReport, error) {
	var cached ProfitReport
	if cache.Get("analytics:profit-margin", &cached) {
		return cached, nil
	}

	details, err := s.orders.AllDetails(ctx)
	if err != nil {
		return ProfitReport{}, err
	}
	var revenue float64
	for _, d := range details {
		revenue += d.UnitPrice * float64(d.Quantity)
	}
	cost := revenue * costRatio
	profit := revenue - cost
	var margin float64
	if revenue > 0 {
		margin = profit / revenue * 100
	}
	out := ProfitReport{Profit: profit, Cost: cost, Margin: margin}
	_ = cache.Set("analytics:profit-margin", out, analyticsTTL)
	return out, nil
}

// AverageOrderValue returns total revenue divided by order count.
func (s *AnalyticsService) AverageOrderValue(ctx context.Context) (float64, error) {
	var cached float64
	if cache.Get("analytics:aov", &cached) {
		return cached, nil
	}

	orders, err := s.orders.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(orders) == 0 {
		return 0, nil
	}
	total := collection.Sum(orders, func(o models.Order) float64 { return o.TotalPrice })
	aov := total / float64(len(orders))
	_ = cache.Set("analytics:aov", aov, analyticsTTL)
	return aov, nil
}

// ConversionRate returns orders as a percentage of site visitors.
// Visitor counts come from config until real traffic instrumentation
// feeds them.
func (s *AnalyticsService) ConversionRate(ctx context.Context) (float64, error) {
	var cached float64
	if cache.Get("analytics:conversion-rate", &cached) {
		return cached, nil
	}

	count, err := s.orders.Count(ctx)
	if err != nil {
		return 0, err
	}
	if s.visitors <= 0 {
		return 0, nil
	}
	rate := float64(count) / float64(s.visitors) * 100
	_ = cache.Set("analytics:conversion-rate", rate, analyticsTTL)
	return rate, nil
}

// CustomerLifetimeValue averages all-time revenue over the customer base.
func (s *AnalyticsService) CustomerLifetimeValue(ctx context.Context) (float64, error) {
	var cached float64
	if cache.Get("analytics:clv", &cached) {
		return cached, nil
	}

	users, err := s.users.All(ctx)
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}
	orders, err := s.orders.All(ctx)
	if err != nil {
		return 0, err
	}

	revenueByUser := make(map[primitive.ObjectID]float64, len(users))
	for _, o := range orders {
		revenueByUser[o.UserID] += o.TotalPrice
	}
	var total float64
	for _, u := range users {
		total += revenueByUser[u.ID]
	}
	clv := total / float64(len(users))
	_ = cache.Set("analytics:clv", clv, analyticsTTL)
	return clv, nil
}

// TopMedicines returns the best sellers by units sold.
func (s *AnalyticsService) TopMedicines(ctx context.Context) ([]repositories.TopSeller, error) {
	var cached []repositories.TopSeller
	if cache.Get("analytics:top-medicines", &cached) {
		return cached, nil
	}

	top, err := s.orders.TopMedicines(ctx, 5)
	if err != nil {
		return nil, err
	}
	_ = cache.Set("analytics:top-medicines", top, analyticsTTL)
	return top, nil
}

// GrowthReport is the growth-rate endpoint payload.
type GrowthReport struct {
	GrowthRate    float64 `json:"growthRate"`
	RevenueLast30 float64 `json:"revenueLast30"`
	RevenuePrev30 float64 `json:"revenuePrev30"`
}

// GrowthRate compares revenue of the last 30 days against the 30 days
// before. With no revenue in the earlier window the rate is 0 rather
// than infinite.
func (s *AnalyticsService) GrowthRate(ctx context.Context) (GrowthReport, error) {
	var cached GrowthReport
	if cache.Get("analytics:growth-rate", &cached) {
		return cached, nil
	}

	now := s.now()
	last30 := now.Add(-30 * 24 * time.Hour)
	prev30 := now.Add(-60 * 24 * time.Hour)

	recent, err := s.orders.CreatedSince(ctx, last30)
	if err != nil {
		return GrowthReport{}, err
	}
	previous, err := s.orders.CreatedBetween(ctx, prev30, last30)
	if err != nil {
		return GrowthReport{}, err
	}

	var r1, r2 float64
	for _, o := range recent {
		r1 += o.TotalPrice
	}
	for _, o := range previous {
		r2 += o.TotalPrice
	}

	out := GrowthReport{RevenueLast30: r1, RevenuePrev30: r2}
	if r2 > 0 {
		out.GrowthRate = (r1 - r2) / r2 * 100
	}
	_ = cache.Set("analytics:growth-rate", out, analyticsTTL)
	return out, nil
}

// revenueHistoryDays is the sparkline window on the dashboard.
const revenueHistoryDays = 12

// RevenueHistory buckets the last 12 days of revenue per calendar
// day, oldest first.
func (s *AnalyticsService) RevenueHistory(ctx context.Context) ([]float64, error) {
	var cached []float64
	if cache.Get("analytics:revenue-history", &cached) {
		return cached, nil
	}

	now := s.now()
	start := now.AddDate(0, 0, -revenueHistoryDays)
	orders, err := s.orders.CreatedSince(ctx, start)
	if err != nil {
		return nil, err
	}

	daily := make([]float64, revenueHistoryDays)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for _, o := range orders {
		day := time.Date(o.CreatedAt.Year(), o.CreatedAt.Month(), o.CreatedAt.Day(), 0, 0, 0, 0, now.Location())
		offset := int(today.Sub(day).Hours() / 24)
		if offset < 0 || offset >= revenueHistoryDays {
			continue
		}
		daily[revenueHistoryDays-1-offset] += o.TotalPrice
	}
	_ = cache.Set("analytics:revenue-history", daily, analyticsTTL)
	return daily, nil
}

// Overview is the basic stats block for the admin home page.
type Overview struct {
	TotalOrders   int     `json:"totalOrders"`
	TotalRevenue  float64 `json:"totalRevenue"`
	PendingOrders int     `json:"pendingOrders"`
}

// Stats returns the order count, total revenue and pending order count.
func (s *AnalyticsService) Stats(ctx context.Context) (Overview, error) {
	var cached Overview
	if cache.Get("analytics:stats", &cached) {
		return cached, nil
	}

	orders, err := s.orders.All(ctx)
	if err != nil {
		return Overview{}, err
	}
	out := Overview{TotalOrders: len(orders)}
	for _, o := range orders {
		out.TotalRevenue += o.TotalPrice
		if o.Status == models.OrderPending {
			out.PendingOrders++
		}
	}
	_ = cache.Set("analytics:stats", out, analyticsTTL)
	return out, nil
}
