package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/repository"
)

type AnalyticsService struct {
	spotRepo    repository.SpotRepository
	sessionRepo repository.SessionRepository
}

func NewAnalyticsService(spotRepo repository.SpotRepository, sessionRepo repository.SessionRepository) *AnalyticsService {
	return &AnalyticsService{spotRepo: spotRepo, sessionRepo: sessionRepo}
}

// OccupancyReport tổng hợp tình trạng lấp đầy hiện tại của bãi theo tầng và
// theo loại chỗ đỗ. Chỗ đỗ bị vô hiệu hóa hoặc không nhận xe (reserved,
// maintenance, out_of_order) được tính là out_of_service.
func (s *AnalyticsService) OccupancyReport(ctx context.Context) (*domain.OccupancyReport, error) {
	spots, err := s.spotRepo.OccupancySnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("lỗi lấy snapshot chỗ đỗ: %w", err)
	}

	report := &domain.OccupancyReport{
		GeneratedAt: time.Now().UTC(),
		TotalSpots:  len(spots),
	}
	byLevel := map[string]*domain.OccupancyBucket{}
	byClass := map[string]*domain.OccupancyBucket{}

	bucketFor := func(m map[string]*domain.OccupancyBucket, key string) *domain.OccupancyBucket {
		b, ok := m[key]
		if !ok {
			b = &domain.OccupancyBucket{Key: key}
			m[key] = b
		}
		return b
	}

	for _, spot := range spots {
		levelBucket := bucketFor(byLevel, fmt.Sprintf("%d", spot.Level))
		classBucket := bucketFor(byClass, string(spot.SpotClass))
		levelBucket.Total++
		classBucket.Total++

		switch {
		case spot.Active && spot.Status == domain.SpotAvailable:
			report.Available++
			levelBucket.Available++
			classBucket.Available++
		case spot.Active && spot.Status == domain.SpotOccupied:
			report.Occupied++
			levelBucket.Occupied++
			classBucket.Occupied++
		default:
			report.OutOfService++
			levelBucket.OutOfService++
			classBucket.OutOfService++
		}
	}

	report.ByLevel = sortedBuckets(byLevel)
	report.ByClass = sortedBuckets(byClass)

	inService := report.TotalSpots - report.OutOfService
	if inService > 0 {
		report.OccupancyPct = round2(float64(report.Occupied) / float64(inService) * 100)
	}
	return report, nil
}

func sortedBuckets(m map[string]*domain.OccupancyBucket) []domain.OccupancyBucket {
	buckets := make([]domain.OccupancyBucket, 0, len(m))
	for _, b := range m {
		buckets = append(buckets, *b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Key < buckets[j].Key })
	return buckets
}

// RevenueReport tổng hợp doanh thu các phiên đã hoàn tất trong khoảng thời
// gian yêu cầu. Mặc định là 30 ngày gần nhất.
func (s *AnalyticsService) RevenueReport(ctx context.Context, filter domain.RevenueFilterDTO) (*domain.RevenueReport, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)

	if filter.From != "" {
		parsed, err := time.Parse(time.RFC3339, filter.From)
		if err != nil {
			return nil, fmt.Errorf("tham số 'from' không hợp lệ: %w", err)
		}
		from = parsed.UTC()
	}
	if filter.To != "" {
		parsed, err := time.Parse(time.RFC3339, filter.To)
		if err != nil {
			return nil, fmt.Errorf("tham số 'to' không hợp lệ: %w", err)
		}
		to = parsed.UTC()
	}
	if to.Before(from) {
		return nil, fmt.Errorf("khoảng thời gian không hợp lệ: 'to' sớm hơn 'from'")
	}

	report, err := s.sessionRepo.RevenueBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("lỗi tổng hợp doanh thu: %w", err)
	}
	report.From = from
	report.To = to
	report.TotalRevenue = round2(report.TotalRevenue)
	return report, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
