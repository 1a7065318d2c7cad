package service

import "city_parking/internal/domain"

// ScoreSpot chấm điểm một chỗ đỗ cho một loại xe. Hàm thuần, không I/O.
// Điểm nền 100, các điều chỉnh cộng dồn theo đúng thứ tự dưới đây để test
// tái lập được con số chính xác; điểm âm bị kẹp về 0.
func ScoreSpot(spot *domain.Spot, vehicleClass domain.VehicleClass, preferredLevel *int) int {
	score := 100

	// 1. Tầng càng cao càng bất tiện.
	score -= 5 * (spot.Level - 1)

	// 2. Thưởng khi đúng tầng khách muốn.
	if preferredLevel != nil && spot.Level == *preferredLevel {
		score += 20
	}

	// 3. Thưởng đúng loại; phạt khi xe nhỏ chiếm chỗ oversized.
	exactMatch := string(spot.SpotClass) == string(vehicleClass)
	if exactMatch {
		score += 15
	} else if vehicleClass != domain.VehicleOversized && spot.SpotClass == domain.ClassOversized {
		score -= 20
	}

	// 4. Khu đầu tiên gần lối vào nhất.
	if spot.Section == "A" {
		score += 5
	}

	// 5. Chỗ có trụ sạc tiện cho mọi loại xe.
	if spot.HasFeature(domain.FeatureCharging) {
		score += 10
	}

	// 6. Giữ chỗ handicap cho người cần: phạt khi xe thường rơi vào chỗ
	// handicap qua đường tương thích dự phòng. Không bao giờ phạt xe
	// handicap (khi đó exactMatch đã đúng).
	if spot.SpotClass == domain.ClassHandicap && vehicleClass != domain.VehicleHandicap {
		score -= 5
	}

	if score < 0 {
		score = 0
	}
	return score
}

// pickBestSpot chọn chỗ đỗ có điểm cao nhất trong danh sách ứng viên.
// Hòa điểm thì phần tử đứng trước thắng: danh sách ứng viên đã được truy
// vấn sắp theo (tầng, khu, số thứ tự).
func pickBestSpot(candidates []domain.Spot, vehicleClass domain.VehicleClass, preferredLevel *int) (int, int) {
	bestIdx := 0
	bestScore := -1
	for i := range candidates {
		score := ScoreSpot(&candidates[i], vehicleClass, preferredLevel)
		if score > bestScore {
			bestIdx = i
			bestScore = score
		}
	}
	return bestIdx, bestScore
}
