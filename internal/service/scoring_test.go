package service

import (
	"testing"

	"city_parking/internal/domain"
)

func TestScoreSpotExactTotals(t *testing.T) {
	tests := []struct {
		name           string
		spot           domain.Spot
		vehicleClass   domain.VehicleClass
		preferredLevel *int
		want           int
	}{
		{
			name:         "chỗ standard tầng 1 khu A, đúng loại",
			spot:         domain.Spot{Level: 1, Section: "A", SpotClass: domain.ClassStandard},
			vehicleClass: domain.VehicleStandard,
			want:         120, // 100 + 15 đúng loại + 5 khu A
		},
		{
			name:         "chỗ standard tầng 3 khu B, đúng loại",
			spot:         domain.Spot{Level: 3, Section: "B", SpotClass: domain.ClassStandard},
			vehicleClass: domain.VehicleStandard,
			want:         105, // 100 - 10 tầng + 15 đúng loại
		},
		{
			name:         "xe standard rơi vào chỗ oversized",
			spot:         domain.Spot{Level: 1, Section: "B", SpotClass: domain.ClassOversized},
			vehicleClass: domain.VehicleStandard,
			want:         80, // 100 - 20 phạt chiếm chỗ to
		},
		{
			name:         "xe oversized vào chỗ oversized không bị phạt",
			spot:         domain.Spot{Level: 1, Section: "B", SpotClass: domain.ClassOversized},
			vehicleClass: domain.VehicleOversized,
			want:         115, // 100 + 15 đúng loại
		},
		{
			name:         "chỗ có trụ sạc",
			spot:         domain.Spot{Level: 1, Section: "B", SpotClass: domain.ClassElectric, Features: []string{domain.FeatureCharging}},
			vehicleClass: domain.VehicleElectric,
			want:         125, // 100 + 15 đúng loại + 10 trụ sạc
		},
		{
			name:         "xe standard vào chỗ handicap qua đường dự phòng",
			spot:         domain.Spot{Level: 1, Section: "B", SpotClass: domain.ClassHandicap},
			vehicleClass: domain.VehicleStandard,
			want:         95, // 100 - 5 phạt chiếm chỗ handicap
		},
		{
			name:         "xe handicap vào chỗ handicap không bị phạt",
			spot:         domain.Spot{Level: 1, Section: "B", SpotClass: domain.ClassHandicap},
			vehicleClass: domain.VehicleHandicap,
			want:         115, // 100 + 15 đúng loại
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSpot(&tt.spot, tt.vehicleClass, tt.preferredLevel)
			if got != tt.want {
				t.Errorf("ScoreSpot() = %d, muốn %d", got, tt.want)
			}
		})
	}
}

func TestScoreSpotPreferredLevelBonus(t *testing.T) {
	preferred := 2
	spotL1 := domain.Spot{Level: 1, Section: "B", SpotClass: domain.ClassStandard}
	spotL2 := domain.Spot{Level: 2, Section: "B", SpotClass: domain.ClassStandard}

	scoreL1 := ScoreSpot(&spotL1, domain.VehicleStandard, &preferred)
	scoreL2 := ScoreSpot(&spotL2, domain.VehicleStandard, &preferred)

	// Tầng 1: 100 + 15 = 115. Tầng 2: 100 - 5 + 20 + 15 = 130.
	if scoreL1 != 115 || scoreL2 != 130 {
		t.Errorf("scoreL1=%d scoreL2=%d, muốn 115/130", scoreL1, scoreL2)
	}
	if scoreL2 <= scoreL1 {
		t.Error("tầng khách muốn phải thắng tầng thấp hơn")
	}
}

func TestScoreSpotNeverNegative(t *testing.T) {
	// Tầng rất cao đẩy điểm xuống âm; phải bị kẹp về 0.
	spot := domain.Spot{Level: 30, Section: "Z", SpotClass: domain.ClassOversized}
	if got := ScoreSpot(&spot, domain.VehicleCompact, nil); got != 0 {
		t.Errorf("ScoreSpot() = %d, muốn 0", got)
	}
}

func TestPickBestSpotTieBreak(t *testing.T) {
	// Hai chỗ giống hệt nhau về điểm: phần tử đứng trước trong danh sách
	// (đã sắp theo tầng, khu, số thứ tự) phải thắng.
	candidates := []domain.Spot{
		{ID: 1, Level: 1, Section: "B", Sequence: 1, SpotClass: domain.ClassStandard},
		{ID: 2, Level: 1, Section: "B", Sequence: 2, SpotClass: domain.ClassStandard},
	}
	idx, score := pickBestSpot(candidates, domain.VehicleStandard, nil)
	if idx != 0 {
		t.Errorf("hòa điểm phải chọn phần tử đầu, nhận idx=%d", idx)
	}
	if score != 115 {
		t.Errorf("score=%d, muốn 115", score)
	}
}

func TestPickBestSpotPrefersHigherScore(t *testing.T) {
	candidates := []domain.Spot{
		{ID: 1, Level: 2, Section: "B", Sequence: 1, SpotClass: domain.ClassStandard}, // 110
		{ID: 2, Level: 1, Section: "A", Sequence: 1, SpotClass: domain.ClassStandard}, // 120
	}
	idx, score := pickBestSpot(candidates, domain.VehicleStandard, nil)
	if idx != 1 || score != 120 {
		t.Errorf("idx=%d score=%d, muốn 1/120", idx, score)
	}
}
