package domain

// Bảng tương thích loại xe -> các loại chỗ đỗ được phép, xếp theo thứ tự
// ưu tiên (đúng loại trước, các loại dự phòng sau). Bảng này cố định và
// không đối xứng: xe oversized chỉ được đỗ chỗ oversized.
var compatibilityTable = map[VehicleClass][]SpotClass{
	VehicleCompact:    {ClassCompact, ClassStandard, ClassOversized},
	VehicleStandard:   {ClassStandard, ClassOversized},
	VehicleOversized:  {ClassOversized},
	VehicleMotorcycle: {ClassMotorcycle, ClassCompact, ClassStandard},
	VehicleElectric:   {ClassElectric, ClassStandard, ClassOversized},
	VehicleHandicap:   {ClassHandicap, ClassStandard, ClassOversized},
}

// CompatibleSpotClasses trả về danh sách loại chỗ đỗ mà một loại xe được
// phép sử dụng, theo thứ tự ưu tiên. Loại xe không có trong bảng rơi về
// quy tắc của xe standard; tầng API đã chặn loại xe lạ từ lúc bind nên
// nhánh này chỉ gặp với caller nội bộ (ví dụ gate consumer).
func CompatibleSpotClasses(vehicleClass VehicleClass) []SpotClass {
	classes, ok := compatibilityTable[vehicleClass]
	if !ok {
		classes = compatibilityTable[VehicleStandard]
	}
	out := make([]SpotClass, len(classes))
	copy(out, classes)
	return out
}

// IsCompatible cho biết một loại xe có được phép đỗ vào một loại chỗ hay
// không; suy ra từ cùng một bảng với CompatibleSpotClasses.
func IsCompatible(vehicleClass VehicleClass, spotClass SpotClass) bool {
	for _, c := range CompatibleSpotClasses(vehicleClass) {
		if c == spotClass {
			return true
		}
	}
	return false
}
