// Package pricing tính phí đỗ xe. Toàn bộ package là hàm thuần, không I/O,
// để endpoint ước tính phí và phần quyết toán dùng chung một logic.
package pricing

import (
	"errors"
	"math"

	"city_parking/internal/domain"
)

var ErrUnknownRateType = errors.New("loại giá không hợp lệ")
var ErrNegativeDuration = errors.New("thời lượng đỗ xe không được âm")

// Config gom mọi tham số tính phí. Giá trị lấy từ internal/config khi chạy
// thật; test tự dựng Config để có con số xác định.
type Config struct {
	GracePeriodMinutes int64
	// Phụ phí mỗi giờ theo feature tag của chỗ đỗ; tag không có trong map
	// thì không tính thêm.
	FeaturePremiums map[string]float64
	// Hệ số và trần cho các loại giá không theo giờ. Trần daily áp cho một
	// block 24 giờ, trần monthly áp cho một block 30 ngày.
	DailyMultiplier   float64
	DailyCap          float64
	MonthlyMultiplier float64
	MonthlyCap        float64
}

// Options là các tùy chọn cho một lần tính phí cụ thể.
type Options struct {
	ApplyGracePeriod bool
}

// ComputeFee tính phí cho một phiên đỗ xe và trả về bảng quyết toán với
// đầy đủ diễn giải. Các bước theo đúng thứ tự: miễn phí trong grace period,
// làm tròn lên theo giờ (tối thiểu 1 giờ), cộng phụ phí feature, rồi áp
// hệ số + trần theo loại giá. Cùng input luôn cho cùng output.
func ComputeFee(durationMinutes int64, rateType domain.RateType, baseRate float64, spotFeatures []string, cfg Config, opts Options) (*domain.Settlement, error) {
	if durationMinutes < 0 {
		return nil, ErrNegativeDuration
	}
	switch rateType {
	case domain.RateHourly, domain.RateDaily, domain.RateMonthly:
	default:
		return nil, ErrUnknownRateType
	}

	s := &domain.Settlement{
		DurationMinutes: durationMinutes,
		RateType:        rateType,
		BaseRatePerHour: baseRate,
	}

	if opts.ApplyGracePeriod && durationMinutes <= cfg.GracePeriodMinutes {
		s.GraceApplied = true
		s.EffectiveRatePerHour = baseRate
		return s, nil
	}

	billableHours := durationMinutes / 60
	if durationMinutes%60 != 0 {
		billableHours++
	}
	if billableHours < 1 {
		billableHours = 1 // bất kỳ phần giờ nào cũng tính tròn một giờ
	}
	s.BillableHours = billableHours

	var premium float64
	for _, f := range spotFeatures {
		premium += cfg.FeaturePremiums[f]
	}
	s.FeaturePremiumPerHour = round2(premium)
	s.EffectiveRatePerHour = round2(baseRate + premium)

	s.Subtotal = round2(float64(billableHours) * s.EffectiveRatePerHour)

	total := s.Subtotal
	switch rateType {
	case domain.RateDaily:
		total = applyMultiplierAndCap(total, cfg.DailyMultiplier, cfg.DailyCap, blocks(billableHours, 24))
	case domain.RateMonthly:
		total = applyMultiplierAndCap(total, cfg.MonthlyMultiplier, cfg.MonthlyCap, blocks(billableHours, 24*30))
	}
	total = round2(total)

	// Phần chênh lệch được báo cáo riêng để hóa đơn minh bạch.
	s.Adjustment = round2(total - s.Subtotal)
	s.TotalAmount = total
	return s, nil
}

func applyMultiplierAndCap(subtotal, multiplier, cap float64, blockCount int64) float64 {
	adjusted := subtotal
	if multiplier > 0 {
		adjusted = subtotal * multiplier
	}
	if cap > 0 {
		limit := cap * float64(blockCount)
		if adjusted > limit {
			adjusted = limit
		}
	}
	return adjusted
}

// blocks trả về số block (ngày, tháng...) mà billableHours trải dài, làm
// tròn lên, tối thiểu 1.
func blocks(billableHours, hoursPerBlock int64) int64 {
	n := billableHours / hoursPerBlock
	if billableHours%hoursPerBlock != 0 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
