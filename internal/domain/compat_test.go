package domain

import "testing"

func TestCompatibleSpotClassesSelfFirst(t *testing.T) {
	// Mỗi loại xe phải có loại chỗ trùng tên đứng đầu danh sách ưu tiên.
	for _, vc := range []VehicleClass{
		VehicleCompact, VehicleStandard, VehicleOversized,
		VehicleElectric, VehicleHandicap, VehicleMotorcycle,
	} {
		classes := CompatibleSpotClasses(vc)
		if len(classes) == 0 {
			t.Fatalf("loại xe %s không có loại chỗ nào", vc)
		}
		if string(classes[0]) != string(vc) {
			t.Errorf("loại xe %s: loại chỗ ưu tiên đầu là %s, muốn %s", vc, classes[0], vc)
		}
	}
}

func TestOversizedOnlyFitsOversized(t *testing.T) {
	classes := CompatibleSpotClasses(VehicleOversized)
	if len(classes) != 1 || classes[0] != ClassOversized {
		t.Fatalf("xe oversized phải chỉ đỗ được chỗ oversized, nhận %v", classes)
	}
}

func TestMotorcycleCannotUseOversized(t *testing.T) {
	if IsCompatible(VehicleMotorcycle, ClassOversized) {
		t.Error("xe máy không được phép đỗ chỗ oversized")
	}
	if !IsCompatible(VehicleMotorcycle, ClassCompact) {
		t.Error("xe máy phải đỗ được chỗ compact")
	}
}

func TestHandicapSpotReserved(t *testing.T) {
	// Chỉ xe handicap mới thấy chỗ handicap trong danh sách tương thích.
	for _, vc := range []VehicleClass{VehicleCompact, VehicleStandard, VehicleOversized, VehicleElectric, VehicleMotorcycle} {
		if IsCompatible(vc, ClassHandicap) {
			t.Errorf("loại xe %s không được phép dùng chỗ handicap", vc)
		}
	}
	if !IsCompatible(VehicleHandicap, ClassHandicap) {
		t.Error("xe handicap phải dùng được chỗ handicap")
	}
}

func TestUnknownVehicleClassFallsBackToStandard(t *testing.T) {
	got := CompatibleSpotClasses(VehicleClass("hovercraft"))
	want := CompatibleSpotClasses(VehicleStandard)
	if len(got) != len(want) {
		t.Fatalf("loại xe lạ phải dùng quy tắc standard, nhận %v", got)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("loại xe lạ phải dùng quy tắc standard, nhận %v", got)
		}
	}
}

func TestCompatibleSpotClassesReturnsCopy(t *testing.T) {
	first := CompatibleSpotClasses(VehicleCompact)
	first[0] = ClassOversized
	second := CompatibleSpotClasses(VehicleCompact)
	if second[0] != ClassCompact {
		t.Error("CompatibleSpotClasses phải trả về bản sao, không phải slice gốc")
	}
}

func TestNormalizeAndValidatePlate(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		valid bool
	}{
		{"  29a 123.45 ", "29A123.45", false}, // dấu chấm không hợp lệ
		{"29a-12345", "29A-12345", true},
		{"abc 1234", "ABC1234", true},
		{"", "", false},
		{"x", "X", false}, // quá ngắn
	}
	for _, tt := range tests {
		got := NormalizePlate(tt.in)
		if got != tt.want {
			t.Errorf("NormalizePlate(%q) = %q, muốn %q", tt.in, got, tt.want)
		}
		if ValidPlate(got) != tt.valid {
			t.Errorf("ValidPlate(%q) = %v, muốn %v", got, !tt.valid, tt.valid)
		}
	}
}

func TestSpotLabel(t *testing.T) {
	s := &Spot{Level: 2, Section: "B", Sequence: 7}
	if s.Label() != "2-B-07" {
		t.Errorf("Label() = %q, muốn %q", s.Label(), "2-B-07")
	}
}
