package handler

import (
	"net/http"

	"city_parking/internal/domain"
	"city_parking/internal/service"

	"github.com/gin-gonic/gin"
)

type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

func NewAnalyticsHandler(as *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: as}
}

// GET /api/v1/analytics/occupancy
func (h *AnalyticsHandler) GetOccupancyReport(c *gin.Context) {
	report, err := h.analyticsService.OccupancyReport(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi tổng hợp báo cáo lấp đầy", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /api/v1/analytics/revenue
func (h *AnalyticsHandler) GetRevenueReport(c *gin.Context) {
	var filter domain.RevenueFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.analyticsService.RevenueReport(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}
