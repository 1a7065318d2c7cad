package pricing

import (
	"errors"
	"testing"

	"city_parking/internal/domain"
)

func testConfig() Config {
	return Config{
		GracePeriodMinutes: 5,
		FeaturePremiums: map[string]float64{
			domain.FeatureCharging: 2.0,
			domain.FeatureCovered:  0.5,
		},
		DailyMultiplier:   0.8,
		DailyCap:          50.0,
		MonthlyMultiplier: 0.5,
		MonthlyCap:        500.0,
	}
}

func TestComputeFeeGracePeriod(t *testing.T) {
	s, err := ComputeFee(4, domain.RateHourly, 5.0, nil, testConfig(), Options{ApplyGracePeriod: true})
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	if !s.GraceApplied {
		t.Error("4 phút phải được miễn phí trong grace period")
	}
	if s.TotalAmount != 0 || s.BillableHours != 0 {
		t.Errorf("grace period: total=%v billable=%v, muốn 0/0", s.TotalAmount, s.BillableHours)
	}
}

func TestComputeFeeGraceBoundary(t *testing.T) {
	// Đúng bằng grace period vẫn miễn phí; quá một phút thì tính tròn 1 giờ.
	s, _ := ComputeFee(5, domain.RateHourly, 5.0, nil, testConfig(), Options{ApplyGracePeriod: true})
	if !s.GraceApplied {
		t.Error("5 phút (== grace) phải được miễn phí")
	}
	s, _ = ComputeFee(6, domain.RateHourly, 5.0, nil, testConfig(), Options{ApplyGracePeriod: true})
	if s.GraceApplied || s.BillableHours != 1 || s.TotalAmount != 5.0 {
		t.Errorf("6 phút: grace=%v billable=%d total=%v, muốn false/1/5.0", s.GraceApplied, s.BillableHours, s.TotalAmount)
	}
}

func TestComputeFeeGraceDisabled(t *testing.T) {
	s, _ := ComputeFee(4, domain.RateHourly, 5.0, nil, testConfig(), Options{ApplyGracePeriod: false})
	if s.GraceApplied {
		t.Error("grace period bị tắt nhưng vẫn được áp dụng")
	}
	if s.BillableHours != 1 || s.TotalAmount != 5.0 {
		t.Errorf("4 phút không grace: billable=%d total=%v, muốn 1/5.0", s.BillableHours, s.TotalAmount)
	}
}

func TestComputeFeeCeilingHours(t *testing.T) {
	tests := []struct {
		minutes int64
		hours   int64
	}{
		{6, 1},
		{60, 1},
		{61, 2},
		{119, 2},
		{120, 2},
		{121, 3},
	}
	for _, tt := range tests {
		s, err := ComputeFee(tt.minutes, domain.RateHourly, 10.0, nil, testConfig(), Options{ApplyGracePeriod: true})
		if err != nil {
			t.Fatalf("ComputeFee(%d phút): %v", tt.minutes, err)
		}
		if s.BillableHours != tt.hours {
			t.Errorf("%d phút: billable=%d, muốn %d", tt.minutes, s.BillableHours, tt.hours)
		}
		if want := float64(tt.hours) * 10.0; s.TotalAmount != want {
			t.Errorf("%d phút: total=%v, muốn %v", tt.minutes, s.TotalAmount, want)
		}
	}
}

func TestComputeFeeFeaturePremiums(t *testing.T) {
	features := []string{domain.FeatureCharging, domain.FeatureCovered, "unknown_tag"}
	s, err := ComputeFee(90, domain.RateHourly, 5.0, features, testConfig(), Options{ApplyGracePeriod: true})
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	if s.FeaturePremiumPerHour != 2.5 {
		t.Errorf("premium=%v, muốn 2.5 (tag lạ không được tính)", s.FeaturePremiumPerHour)
	}
	if s.EffectiveRatePerHour != 7.5 {
		t.Errorf("effective=%v, muốn 7.5", s.EffectiveRatePerHour)
	}
	// 2 giờ x 7.5
	if s.Subtotal != 15.0 || s.TotalAmount != 15.0 {
		t.Errorf("subtotal=%v total=%v, muốn 15.0/15.0", s.Subtotal, s.TotalAmount)
	}
}

func TestComputeFeeDailyMultiplierAndCap(t *testing.T) {
	// 10 giờ x 10.0 = 100; nhân 0.8 = 80; trần 50 cho một block 24h.
	s, err := ComputeFee(600, domain.RateDaily, 10.0, nil, testConfig(), Options{ApplyGracePeriod: true})
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	if s.Subtotal != 100.0 {
		t.Errorf("subtotal=%v, muốn 100.0", s.Subtotal)
	}
	if s.TotalAmount != 50.0 {
		t.Errorf("total=%v, muốn 50.0 (bị trần ngày chặn)", s.TotalAmount)
	}
	if s.Adjustment != -50.0 {
		t.Errorf("adjustment=%v, muốn -50.0", s.Adjustment)
	}
}

func TestComputeFeeDailyCapPerBlock(t *testing.T) {
	// 48 giờ = 2 block ngày, trần 50 x 2 = 100.
	// Subtotal 48 x 10 = 480; nhân 0.8 = 384; chặn còn 100.
	s, err := ComputeFee(48*60, domain.RateDaily, 10.0, nil, testConfig(), Options{ApplyGracePeriod: true})
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	if s.TotalAmount != 100.0 {
		t.Errorf("total=%v, muốn 100.0 (2 block x trần 50)", s.TotalAmount)
	}
}

func TestComputeFeeDailyMultiplierBelowCap(t *testing.T) {
	// 3 giờ x 10 = 30; nhân 0.8 = 24, dưới trần 50.
	s, err := ComputeFee(180, domain.RateDaily, 10.0, nil, testConfig(), Options{ApplyGracePeriod: true})
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	if s.TotalAmount != 24.0 {
		t.Errorf("total=%v, muốn 24.0", s.TotalAmount)
	}
	if s.Adjustment != -6.0 {
		t.Errorf("adjustment=%v, muốn -6.0", s.Adjustment)
	}
}

func TestComputeFeeMonthly(t *testing.T) {
	// 100 giờ x 10 = 1000; nhân 0.5 = 500, đúng bằng trần một block tháng.
	s, err := ComputeFee(100*60, domain.RateMonthly, 10.0, nil, testConfig(), Options{ApplyGracePeriod: true})
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	if s.TotalAmount != 500.0 {
		t.Errorf("total=%v, muốn 500.0", s.TotalAmount)
	}
}

func TestComputeFeeUnknownRateType(t *testing.T) {
	_, err := ComputeFee(60, domain.RateType("weekly"), 10.0, nil, testConfig(), Options{})
	if !errors.Is(err, ErrUnknownRateType) {
		t.Errorf("err=%v, muốn ErrUnknownRateType", err)
	}
}

func TestComputeFeeNegativeDuration(t *testing.T) {
	_, err := ComputeFee(-1, domain.RateHourly, 10.0, nil, testConfig(), Options{})
	if !errors.Is(err, ErrNegativeDuration) {
		t.Errorf("err=%v, muốn ErrNegativeDuration", err)
	}
}

func TestComputeFeeDeterministic(t *testing.T) {
	features := []string{domain.FeatureCharging}
	first, err := ComputeFee(135, domain.RateHourly, 7.25, features, testConfig(), Options{ApplyGracePeriod: true})
	if err != nil {
		t.Fatalf("ComputeFee: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := ComputeFee(135, domain.RateHourly, 7.25, features, testConfig(), Options{ApplyGracePeriod: true})
		if err != nil {
			t.Fatalf("ComputeFee lần %d: %v", i, err)
		}
		if *again != *first {
			t.Fatalf("cùng input phải cho cùng output: %+v != %+v", again, first)
		}
	}
}
