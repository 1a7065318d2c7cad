package handler

import (
	"errors"
	"net/http"
	"strconv"

	"city_parking/internal/domain"
	"city_parking/internal/pricing"
	"city_parking/internal/repository"
	"city_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type ParkingHandler struct {
	parkingService *service.ParkingService
}

func NewParkingHandler(ps *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{parkingService: ps}
}

// POST /api/v1/parking/check-in
func (h *ParkingHandler) CheckIn(c *gin.Context) {
	var dto domain.CheckInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.parkingService.CheckIn(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyParked):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNoAvailableSpot):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi xử lý check-in", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, result)
}

// POST /api/v1/parking/check-out
func (h *ParkingHandler) CheckOut(c *gin.Context) {
	var dto domain.CheckOutDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settlement, err := h.parkingService.CheckOut(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlate), errors.Is(err, service.ErrInvalidCheckoutTime):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrNotParked):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi xử lý check-out", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// POST /api/v1/parking/simulate
func (h *ParkingHandler) SimulateCheckIn(c *gin.Context) {
	var dto domain.CheckInDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.parkingService.SimulateCheckIn(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlate):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyParked), errors.Is(err, service.ErrNoAvailableSpot):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi mô phỏng check-in", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// POST /api/v1/parking/estimate-fee
func (h *ParkingHandler) EstimateFee(c *gin.Context) {
	var dto domain.EstimateFeeDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	settlement, err := h.parkingService.EstimateFee(dto)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownRateType) || errors.Is(err, pricing.ErrNegativeDuration) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi tính phí ước tính", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, settlement)
}

// GET /api/v1/sessions
func (h *ParkingHandler) FindSessions(c *gin.Context) {
	var filter domain.SessionFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessions, err := h.parkingService.FindSessions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách phiên đỗ xe"})
		return
	}
	c.JSON(http.StatusOK, sessions)
}

// GET /api/v1/sessions/:id
func (h *ParkingHandler) GetSessionByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Session ID không hợp lệ"})
		return
	}

	session, err := h.parkingService.GetSessionByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy phiên đỗ xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin phiên đỗ xe"})
		return
	}
	c.JSON(http.StatusOK, session)
}
