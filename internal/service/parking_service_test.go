package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"city_parking/internal/domain"
	"city_parking/internal/pricing"
	"city_parking/internal/repository"
	"city_parking/internal/repository/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFeeConfig() pricing.Config {
	return pricing.Config{
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

func newTestService(t *testing.T, spots ...domain.Spot) (*ParkingService, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	for i := range spots {
		_, err := store.Spots().Create(context.Background(), &spots[i])
		require.NoError(t, err)
	}
	svc := NewParkingService(store.Spots(), store.Vehicles(), store.Sessions(), store,
		nil, testFeeConfig(), 5.0, 10)
	return svc, store
}

func standardSpot(level int, section string, sequence int) domain.Spot {
	return domain.Spot{
		Level: level, Section: section, Sequence: sequence,
		SpotClass: domain.ClassStandard, Status: domain.SpotAvailable, Active: true,
	}
}

func TestCheckInCheckOutRoundTrip(t *testing.T) {
	svc, store := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	result, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "abc 1234", VehicleClass: "standard"})
	require.NoError(t, err)
	require.NotNil(t, result.Session)
	assert.Equal(t, "1-A-01", result.Spot.Label())
	assert.Equal(t, domain.SpotOccupied, result.Spot.Status)

	// Chỗ đỗ trong kho phải thật sự bị chiếm và xe ở trạng thái parked.
	stored, err := store.Spots().FindByID(ctx, result.Spot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotOccupied, stored.Status)

	vehicle, err := store.Vehicles().FindByPlate(ctx, "ABC1234")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleParked, vehicle.Status)

	settlement, err := svc.CheckOut(ctx, domain.CheckOutDTO{Plate: "ABC1234"})
	require.NoError(t, err)
	assert.NotEmpty(t, settlement.ReceiptNumber)
	assert.Equal(t, "ABC1234", settlement.VehiclePlate)
	assert.True(t, settlement.GraceApplied) // check-out ngay lập tức nằm trong grace period
	assert.Zero(t, settlement.TotalAmount)

	// Chỗ đỗ phải trống trở lại và có thể nhận xe khác.
	stored, err = store.Spots().FindByID(ctx, result.Spot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotAvailable, stored.Status)

	_, err = svc.CheckIn(ctx, domain.CheckInDTO{Plate: "XYZ9999", VehicleClass: "standard"})
	require.NoError(t, err)
}

func TestCheckInRejectsInvalidPlate(t *testing.T) {
	svc, _ := newTestService(t, standardSpot(1, "A", 1))
	_, err := svc.CheckIn(context.Background(), domain.CheckInDTO{Plate: "!!", VehicleClass: "standard"})
	assert.ErrorIs(t, err, ErrInvalidPlate)
}

func TestCheckInAlreadyParked(t *testing.T) {
	svc, _ := newTestService(t, standardSpot(1, "A", 1), standardSpot(1, "A", 2))
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	require.NoError(t, err)

	// Cùng biển số (kể cả viết thường, có khoảng trắng) không được vào lần hai.
	_, err = svc.CheckIn(ctx, domain.CheckInDTO{Plate: "abc 1234", VehicleClass: "standard"})
	assert.ErrorIs(t, err, ErrAlreadyParked)
}

func TestCheckInNoAvailableSpot(t *testing.T) {
	svc, _ := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "AAA1111", VehicleClass: "standard"})
	require.NoError(t, err)

	_, err = svc.CheckIn(ctx, domain.CheckInDTO{Plate: "BBB2222", VehicleClass: "standard"})
	assert.ErrorIs(t, err, ErrNoAvailableSpot)
}

func TestCheckInFallbackToLargerSpot(t *testing.T) {
	// Chỉ còn chỗ oversized: xe standard vẫn vào được theo bảng tương thích.
	spot := domain.Spot{
		Level: 1, Section: "A", Sequence: 1,
		SpotClass: domain.ClassOversized, Status: domain.SpotAvailable, Active: true,
	}
	svc, _ := newTestService(t, spot)

	result, err := svc.CheckIn(context.Background(), domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassOversized, result.Spot.SpotClass)
}

func TestCheckInOversizedNeverDegrades(t *testing.T) {
	// Xe oversized không được rơi xuống chỗ standard dù bãi còn trống.
	svc, _ := newTestService(t, standardSpot(1, "A", 1), standardSpot(1, "A", 2))

	_, err := svc.CheckIn(context.Background(), domain.CheckInDTO{Plate: "BIG0001", VehicleClass: "oversized"})
	assert.ErrorIs(t, err, ErrNoAvailableSpot)
}

func TestCheckInPrefersExactClass(t *testing.T) {
	compact := domain.Spot{
		Level: 1, Section: "A", Sequence: 1,
		SpotClass: domain.ClassCompact, Status: domain.SpotAvailable, Active: true,
	}
	svc, _ := newTestService(t, compact, standardSpot(1, "A", 2))

	result, err := svc.CheckIn(context.Background(), domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "compact"})
	require.NoError(t, err)
	assert.Equal(t, domain.ClassCompact, result.Spot.SpotClass)
}

func TestCheckInIgnoresInactiveAndOccupiedSpots(t *testing.T) {
	inactive := standardSpot(1, "A", 1)
	inactive.Active = false
	maintenance := standardSpot(1, "A", 2)
	maintenance.Status = domain.SpotMaintenance
	svc, _ := newTestService(t, inactive, maintenance)

	_, err := svc.CheckIn(context.Background(), domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	assert.ErrorIs(t, err, ErrNoAvailableSpot)
}

func TestCheckInPreferredLevel(t *testing.T) {
	svc, _ := newTestService(t, standardSpot(1, "A", 1), standardSpot(2, "A", 1))
	preferred := 2

	result, err := svc.CheckIn(context.Background(), domain.CheckInDTO{
		Plate: "ABC1234", VehicleClass: "standard", PreferredLevel: &preferred,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Spot.Level)
}

func TestConcurrentCheckInSingleSpot(t *testing.T) {
	// N xe khác nhau tranh một chỗ duy nhất: đúng một xe thắng, các xe còn
	// lại nhận ErrNoAvailableSpot, không có phiên trùng chỗ.
	svc, store := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			plate := fmt.Sprintf("CAR-%04d", i)
			_, errs[i] = svc.CheckIn(ctx, domain.CheckInDTO{Plate: plate, VehicleClass: "standard"})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, ErrNoAvailableSpot)
		}
	}
	assert.Equal(t, 1, succeeded, "đúng một xe phải giữ được chỗ")

	active := "active"
	sessions, err := store.Sessions().Find(ctx, domain.SessionFilterDTO{Status: &active})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}

func TestCheckOutNotParked(t *testing.T) {
	svc, _ := newTestService(t, standardSpot(1, "A", 1))
	_, err := svc.CheckOut(context.Background(), domain.CheckOutDTO{Plate: "ABC1234"})
	assert.ErrorIs(t, err, ErrNotParked)
}

func TestCheckOutInvalidCheckoutTime(t *testing.T) {
	svc, _ := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, domain.CheckOutDTO{Plate: "ABC1234", CheckoutTime: "không phải thời gian"})
	assert.ErrorIs(t, err, ErrInvalidCheckoutTime)

	// Thời gian ra sớm hơn thời gian vào cũng bị từ chối.
	_, err = svc.CheckOut(ctx, domain.CheckOutDTO{Plate: "ABC1234", CheckoutTime: "2020-01-01T00:00:00Z"})
	assert.ErrorIs(t, err, ErrInvalidCheckoutTime)
}

func TestCheckOutComputesFeeFromSpotFeatures(t *testing.T) {
	spot := domain.Spot{
		Level: 1, Section: "A", Sequence: 1,
		SpotClass: domain.ClassElectric, Status: domain.SpotAvailable, Active: true,
		Features: []string{domain.FeatureCharging},
	}
	svc, store := newTestService(t, spot)
	ctx := context.Background()

	result, err := svc.CheckIn(ctx, domain.CheckInDTO{
		Plate: "EV-0001", VehicleClass: "electric", RateType: "hourly", BaseRate: 4.0,
	})
	require.NoError(t, err)

	// Check-out 90 phút sau thời gian vào để có phí xác định: 2 giờ x (4.0 + 2.0).
	checkout := result.Session.StartTime.Add(90 * time.Minute)
	settlement, err := svc.CheckOut(ctx, domain.CheckOutDTO{
		Plate: "EV-0001", CheckoutTime: checkout.Format(time.RFC3339Nano),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), settlement.BillableHours)
	assert.Equal(t, 6.0, settlement.EffectiveRatePerHour)
	assert.Equal(t, 12.0, settlement.TotalAmount)

	// Phiên trong kho phải mang đúng số tiền quyết toán.
	session, err := store.Sessions().FindByID(ctx, result.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionCompleted, session.Status)
	assert.Equal(t, 12.0, session.TotalAmount.Float64)
}

func TestCheckOutRemoveRecord(t *testing.T) {
	svc, store := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	require.NoError(t, err)

	_, err = svc.CheckOut(ctx, domain.CheckOutDTO{Plate: "ABC1234", RemoveRecord: true})
	require.NoError(t, err)

	_, err = store.Vehicles().FindByPlate(ctx, "ABC1234")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSimulateCheckInDoesNotMutate(t *testing.T) {
	svc, store := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	result, err := svc.SimulateCheckIn(ctx, domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	require.NoError(t, err)
	assert.Nil(t, result.Session)
	assert.Equal(t, "1-A-01", result.Spot.Label())

	// Không có gì thay đổi: chỗ vẫn trống, không có phiên, không có xe.
	spot, err := store.Spots().FindByID(ctx, result.Spot.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SpotAvailable, spot.Status)

	sessions, err := store.Sessions().Find(ctx, domain.SessionFilterDTO{})
	require.NoError(t, err)
	assert.Empty(t, sessions)

	_, err = store.Vehicles().FindByPlate(ctx, "ABC1234")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSetSpotStatusBlockedWhileOccupied(t *testing.T) {
	svc, _ := newTestService(t, standardSpot(1, "A", 1))
	ctx := context.Background()

	result, err := svc.CheckIn(ctx, domain.CheckInDTO{Plate: "ABC1234", VehicleClass: "standard"})
	require.NoError(t, err)

	_, err = svc.SetSpotStatus(ctx, result.Spot.ID, domain.SpotStatusDTO{Status: "maintenance"})
	assert.ErrorIs(t, err, ErrSpotInUse)

	err = svc.DeleteSpot(ctx, result.Spot.ID)
	assert.ErrorIs(t, err, ErrSpotInUse)
}

func TestEstimateFeeMatchesCheckout(t *testing.T) {
	svc, _ := newTestService(t)

	settlement, err := svc.EstimateFee(domain.EstimateFeeDTO{
		DurationMinutes: 90,
		RateType:        "hourly",
		BaseRate:        4.0,
		Features:        []string{domain.FeatureCharging},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), settlement.BillableHours)
	assert.Equal(t, 12.0, settlement.TotalAmount)
}
