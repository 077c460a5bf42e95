package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/app/repositories"
)

type fakeAnalyticsReader struct {
	orders  []models.Order
	details []models.OrderDetail
	top     []repositories.TopSeller
}

func (f *fakeAnalyticsReader) All(context.Context) ([]models.Order, error) {
	return f.orders, nil
}

func (f *fakeAnalyticsReader) Count(context.Context) (int64, error) {
	return int64(len(f.orders)), nil
}

func (f *fakeAnalyticsReader) CreatedSince(_ context.Context, since time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if !o.CreatedAt.Before(since) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeAnalyticsReader) CreatedBetween(_ context.Context, from, to time.Time) ([]models.Order, error) {
	var out []models.Order
	for _, o := range f.orders {
		if !o.CreatedAt.Before(from) && o.CreatedAt.Before(to) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeAnalyticsReader) AllDetails(context.Context) ([]models.OrderDetail, error) {
	return f.details, nil
}

func (f *fakeAnalyticsReader) TopMedicines(context.Context, int) ([]repositories.TopSeller, error) {
	return f.top, nil
}

type fakeUserCounter struct {
	users []models.User
}

func (f *fakeUserCounter) All(context.Context) ([]models.User, error) {
	return f.users, nil
}

func orderAt(userID primitive.ObjectID, total float64, at time.Time) models.Order {
	return models.Order{UserID: userID, TotalPrice: total, Status: models.OrderPending, CreatedAt: at}
}

func TestTotalRevenueSumsAllOrders(t *testing.T) {
	reader := &fakeAnalyticsReader{orders: []models.Order{
		{TotalPrice: 100}, {TotalPrice: 250.5}, {TotalPrice: 49.5},
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)

	out, err := svc.TotalRevenue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 400.0, out.TotalRevenue, 0.001)
}

func TestProfitMarginUsesCostRatio(t *testing.T) {
	reader := &fakeAnalyticsReader{details: []models.OrderDetail{
		{UnitPrice: 100, Quantity: 2},
		{UnitPrice: 50, Quantity: 2},
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)

	out, err := svc.ProfitMargin(context.Background())
	require.NoError(t, err)
	// Revenue 300, cost 210, profit 90, margin 30%.
	assert.InDelta(t, 90.0, out.Profit, 0.001)
	assert.InDelta(t, 210.0, out.Cost, 0.001)
	assert.InDelta(t, 30.0, out.Margin, 0.001)
}

func TestProfitMarginEmptyLedger(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsReader{}, &fakeUserCounter{}, 1000)

	out, err := svc.ProfitMargin(context.Background())
	require.NoError(t, err)
	assert.Zero(t, out.Margin)
}

func TestAverageOrderValueZeroOrders(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsReader{}, &fakeUserCounter{}, 1000)

	aov, err := svc.AverageOrderValue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, aov)
}

func TestAverageOrderValue(t *testing.T) {
	reader := &fakeAnalyticsReader{orders: []models.Order{
		{TotalPrice: 100}, {TotalPrice: 300},
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)

	aov, err := svc.AverageOrderValue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 200.0, aov, 0.001)
}

func TestConversionRate(t *testing.T) {
	reader := &fakeAnalyticsReader{orders: make([]models.Order, 25)}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)

	rate, err := svc.ConversionRate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 2.5, rate, 0.001)
}

func TestCustomerLifetimeValue(t *testing.T) {
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	reader := &fakeAnalyticsReader{orders: []models.Order{
		{UserID: alice, TotalPrice: 500},
		{UserID: alice, TotalPrice: 100},
		{UserID: bob, TotalPrice: 200},
	}}
	users := &fakeUserCounter{users: []models.User{{ID: alice}, {ID: bob}}}
	svc := NewAnalyticsService(reader, users, 1000)

	clv, err := svc.CustomerLifetimeValue(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 400.0, clv, 0.001)
}

func TestCustomerLifetimeValueNoUsers(t *testing.T) {
	svc := NewAnalyticsService(&fakeAnalyticsReader{}, &fakeUserCounter{}, 1000)

	clv, err := svc.CustomerLifetimeValue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, clv)
}

func TestGrowthRateComparesWindows(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := primitive.NewObjectID()
	reader := &fakeAnalyticsReader{orders: []models.Order{
		orderAt(user, 300, now.Add(-5*24*time.Hour)),  // last 30 days
		orderAt(user, 150, now.Add(-45*24*time.Hour)), // previous 30 days
		orderAt(user, 999, now.Add(-90*24*time.Hour)), // outside both windows
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)
	svc.now = func() time.Time { return now }

	out, err := svc.GrowthRate(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 300.0, out.RevenueLast30, 0.001)
	assert.InDelta(t, 150.0, out.RevenuePrev30, 0.001)
	assert.InDelta(t, 100.0, out.GrowthRate, 0.001)
}

func TestGrowthRateZeroBaseline(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	reader := &fakeAnalyticsReader{orders: []models.Order{
		orderAt(primitive.NewObjectID(), 300, now.Add(-5*24*time.Hour)),
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)
	svc.now = func() time.Time { return now }

	out, err := svc.GrowthRate(context.Background())
	require.NoError(t, err)
	// No revenue in the earlier window: rate is 0, not infinite.
	assert.Zero(t, out.GrowthRate)
	assert.InDelta(t, 300.0, out.RevenueLast30, 0.001)
}

func TestRevenueHistoryBucketsByDay(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	user := primitive.NewObjectID()
	reader := &fakeAnalyticsReader{orders: []models.Order{
		orderAt(user, 100, now.Add(-2*time.Hour)),                 // today
		orderAt(user, 40, now.Add(-26*time.Hour)),                 // yesterday
		orderAt(user, 60, now.Add(-25*time.Hour)),                 // yesterday
		orderAt(user, 500, now.Add(-11*24*time.Hour)),             // oldest bucket
		orderAt(user, 999, now.Add(-20*24*time.Hour).Add(-time.Hour)), // outside window
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)
	svc.now = func() time.Time { return now }

	daily, err := svc.RevenueHistory(context.Background())
	require.NoError(t, err)
	require.Len(t, daily, 12)

	assert.InDelta(t, 500.0, daily[0], 0.001)  // oldest first
	assert.InDelta(t, 100.0, daily[11], 0.001) // today last
	assert.InDelta(t, 100.0, daily[10], 0.001) // yesterday: 40 + 60
	assert.InDelta(t, 700.0, collectionSum(daily), 0.001)
}

func collectionSum(xs []float64) float64 {
	var total float64
	for _, x := range xs {
		total += x
	}
	return total
}

func TestStatsCountsPendingOrders(t *testing.T) {
	reader := &fakeAnalyticsReader{orders: []models.Order{
		{TotalPrice: 100, Status: models.OrderPending},
		{TotalPrice: 200, Status: models.OrderPaid},
		{TotalPrice: 300, Status: models.OrderPending},
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)

	out, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, out.TotalOrders)
	assert.Equal(t, 2, out.PendingOrders)
	assert.InDelta(t, 600.0, out.TotalRevenue, 0.001)
}

func TestTopMedicinesPassThrough(t *testing.T) {
	reader := &fakeAnalyticsReader{top: []repositories.TopSeller{
		{Name: "Paracetamol 500mg", TotalSold: 40, Revenue: 4800},
	}}
	svc := NewAnalyticsService(reader, &fakeUserCounter{}, 1000)

	top, err := svc.TopMedicines(context.Background())
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Paracetamol 500mg", top[0].Name)
}
