package service

import (
	"context"
	"testing"
	"time"

	"city_parking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccupancyReport(t *testing.T) {
	broken := standardSpot(2, "A", 1)
	broken.Status = domain.SpotOutOfOrder
	svc, store := newTestService(t, standardSpot(1, "A", 1), standardSpot(1, "A", 2), broken)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	require.NoError(t, err)

	analytics := NewAnalyticsService(store.Spots(), store.Sessions())
	report, err := analytics.OccupancyReport(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, report.TotalSpots)
	assert.Equal(t, 1, report.Available)
	assert.Equal(t, 1, report.Occupied)
	assert.Equal(t, 1, report.OutOfService)
	// 1 chỗ chiếm trên 2 chỗ đang phục vụ.
	assert.Equal(t, 50.0, report.OccupancyPct)

	require.Len(t, report.ByLevel, 2)
	assert.Equal(t, "1", report.ByLevel[0].Key)
	assert.Equal(t, 2, report.ByLevel[0].Total)
	assert.Equal(t, "2", report.ByLevel[1].Key)
	assert.Equal(t, 1, report.ByLevel[1].OutOfService)
}

func TestRevenueReport(t *testing.T) {
	svc, store := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	result, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard", BaseRate: 10.0})
	require.NoError(t, err)
	checkout := result.Session.StartTime.Add(2 * time.Hour)
	_, err = svc.CheckOut(ctx, domain.CheckOutDTO{Plate: "ABC1234", CheckoutTime: checkout.Format(time.RFC3339Nano)})
	require.NoError(t, err)

	// Thời gian ra nằm sau "hiện tại" nên phải nêu rõ khoảng báo cáo.
	analytics := NewAnalyticsService(store.Spots(), store.Sessions())
	report, err := analytics.RevenueReport(ctx, domain.RevenueFilterDTO{
		From: result.Session.StartTime.Format(time.RFC3339),
		To:   checkout.Add(time.Hour).Format(time.RFC3339),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, report.CompletedSessions)
	assert.Equal(t, 20.0, report.TotalRevenue)
	assert.Equal(t, 120.0, report.AvgDurationMinutes)
}

func TestRevenueReportRejectsBadRange(t *testing.T) {
	svc, store := newTestService(t)
	_ = svc
	analytics := NewAnalyticsService(store.Spots(), store.Sessions())

	_, err := analytics.RevenueReport(context.Background(), domain.RevenueFilterDTO{From: "hôm qua"})
	assert.Error(t, err)

	_, err = analytics.RevenueReport(context.Background(), domain.RevenueFilterDTO{
		From: "2026-02-01T00:00:00Z", To: "2026-01-01T00:00:00Z",
	})
	assert.Error(t, err)
}
