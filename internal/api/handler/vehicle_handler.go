package handler

import (
	"errors"
	"net/http"

	"city_parking/internal/domain"
	"city_parking/internal/repository"
	"city_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type VehicleHandler struct {
	parkingService *service.ParkingService
}

func NewVehicleHandler(ps *service.ParkingService) *VehicleHandler {
	return &VehicleHandler{parkingService: ps}
}

// POST /api/v1/vehicles
func (h *VehicleHandler) RegisterVehicle(c *gin.Context) {
	var dto domain.RegisterVehicleDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicle, err := h.parkingService.RegisterVehicle(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đăng ký xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, vehicle)
}

// GET /api/v1/vehicles
func (h *VehicleHandler) FindVehicles(c *gin.Context) {
	var filter domain.VehicleFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vehicles, err := h.parkingService.FindVehicles(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách xe"})
		return
	}
	c.JSON(http.StatusOK, vehicles)
}

// GET /api/v1/vehicles/:plate
func (h *VehicleHandler) GetVehicleByPlate(c *gin.Context) {
	vehicle, err := h.parkingService.GetVehicleByPlate(c.Request.Context(), c.Param("plate"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin xe"})
		return
	}
	c.JSON(http.StatusOK, vehicle)
}
