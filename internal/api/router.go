package api

import (
	"city_parking/internal/api/handler"
	"city_parking/internal/api/middleware"
	"city_parking/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(as *service.AuthService, ps *service.ParkingService, ans *service.AnalyticsService,
	authMw *middleware.AuthMiddleware, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, PATCH, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket endpoint (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		spotH := handler.NewSpotHandler(ps)
		spotRoutes := v1.Group("/spots")
		{
			spotRoutes.POST("", authMw.AuthorizeRole("admin"), spotH.CreateSpot)
			spotRoutes.GET("", spotH.FindSpots)
			spotRoutes.GET("/:id", spotH.GetSpotByID)
			spotRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), spotH.UpdateSpot)
			spotRoutes.PATCH("/:id/status", authMw.AuthorizeRole("admin", "operator"), spotH.SetSpotStatus)
			spotRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), spotH.DeleteSpot)
		}

		vehicleH := handler.NewVehicleHandler(ps)
		vehicleRoutes := v1.Group("/vehicles")
		{
			vehicleRoutes.POST("", authMw.AuthorizeRole("admin", "operator"), vehicleH.RegisterVehicle)
			vehicleRoutes.GET("", vehicleH.FindVehicles)
			vehicleRoutes.GET("/:plate", vehicleH.GetVehicleByPlate)
		}

		parkingH := handler.NewParkingHandler(ps)
		parkingRoutes := v1.Group("/parking")
		{
			parkingRoutes.POST("/check-in", authMw.AuthorizeRole("admin", "operator"), parkingH.CheckIn)
			parkingRoutes.POST("/check-out", authMw.AuthorizeRole("admin", "operator"), parkingH.CheckOut)
			parkingRoutes.POST("/simulate", parkingH.SimulateCheckIn)
			parkingRoutes.POST("/estimate-fee", parkingH.EstimateFee)
		}

		sessionRoutes := v1.Group("/sessions")
		{
			sessionRoutes.GET("", parkingH.FindSessions)
			sessionRoutes.GET("/:id", parkingH.GetSessionByID)
		}

		analyticsH := handler.NewAnalyticsHandler(ans)
		analyticsRoutes := v1.Group("/analytics")
		{
			analyticsRoutes.GET("/occupancy", analyticsH.GetOccupancyReport)
			analyticsRoutes.GET("/revenue", authMw.AuthorizeRole("admin"), analyticsH.GetRevenueReport)
		}
	}
	return r
}
