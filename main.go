package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"city_parking/internal/api"
	"city_parking/internal/api/handler"
	"city_parking/internal/api/middleware"
	"city_parking/internal/config"
	"city_parking/internal/gate"
	"city_parking/internal/pricing"
	"city_parking/internal/repository"
	"city_parking/internal/repository/memory"
	"city_parking/internal/repository/postgresql"
	"city_parking/internal/seed"
	"city_parking/internal/service"

	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Khởi tạo kho dữ liệu theo driver cấu hình
	var (
		spotRepo    repository.SpotRepository
		vehicleRepo repository.VehicleRepository
		sessionRepo repository.SessionRepository
		userRepo    repository.UserRepository
		allocStore  repository.AllocationStore
	)

	switch cfg.StoreDriver {
	case "memory":
		store := memory.NewStore()
		spotRepo = store.Spots()
		vehicleRepo = store.Vehicles()
		sessionRepo = store.Sessions()
		userRepo = store.Users()
		allocStore = store
		log.Println("Đang dùng kho dữ liệu in-memory (dữ liệu mất khi tắt server).")
	default:
		db, err := postgresql.NewDB(cfg)
		if err != nil {
			log.Fatalf("Không thể kết nối database: %v", err)
		}
		defer db.Close()
		log.Println("Đã kết nối database thành công!")

		if err := postgresql.EnsureSchema(context.Background(), db); err != nil {
			log.Fatalf("Không thể khởi tạo schema: %v", err)
		}

		spotRepo = postgresql.NewPgSpotRepository(db)
		vehicleRepo = postgresql.NewPgVehicleRepository(db)
		sessionRepo = postgresql.NewPgSessionRepository(db)
		userRepo = postgresql.NewPgUserRepository(db)
		allocStore = postgresql.NewPgAllocationStore(db)
	}

	// 3. Seed dữ liệu ban đầu (lưới chỗ đỗ + tài khoản admin)
	if err := seed.Run(context.Background(), cfg, spotRepo, userRepo); err != nil {
		log.Fatalf("Lỗi seed dữ liệu ban đầu: %v", err)
	}

	// 4. Khởi động WebSocket Manager
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket Manager đã được khởi động.")

	// 5. Initialize Services
	feeConfig := pricing.Config{
		GracePeriodMinutes: int64(cfg.GracePeriodMinutes),
		FeaturePremiums: map[string]float64{
			"charging": cfg.ChargingPremium,
			"covered":  cfg.CoveredPremium,
		},
		DailyMultiplier:   cfg.DailyMultiplier,
		DailyCap:          cfg.DailyCap,
		MonthlyMultiplier: cfg.MonthlyMultiplier,
		MonthlyCap:        cfg.MonthlyCap,
	}
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	parkingService := service.NewParkingService(spotRepo, vehicleRepo, sessionRepo, allocStore,
		webSocketManager, feeConfig, cfg.DefaultBaseRate, cfg.CandidateLimit)
	analyticsService := service.NewAnalyticsService(spotRepo, sessionRepo)

	// 6. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 7. Khởi tạo và chạy Gate Consumer (SQS)
	var wg sync.WaitGroup
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	if cfg.SQSGateQueueURL == "" {
		log.Println("CẢNH BÁO: SQS_GATE_QUEUE_URL chưa được cấu hình. Gate Consumer sẽ không chạy.")
	} else {
		awsSDKCfg, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Không thể tải AWS SDK config: %v", err)
		}
		sqsClient := sqs.NewFromConfig(awsSDKCfg)
		gateConsumer := gate.NewSQSConsumer(sqsClient, cfg, parkingService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			gateConsumer.Start(consumerCtx)
			log.Println("Gate Consumer đã dừng.")
		}()
	}

	// 8. Setup HTTP Router
	router := api.SetupRouter(authService, parkingService, analyticsService, authMiddleware, webSocketManager)

	// 9. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	cancelConsumer()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	if cfg.SQSGateQueueURL != "" {
		log.Println("Đang chờ Gate consumer dừng (tối đa 5 giây)...")
		c := make(chan struct{})
		go func() {
			defer close(c)
			wg.Wait()
		}()
		select {
		case <-c:
			log.Println("Gate consumer đã dừng hoàn toàn.")
		case <-time.After(5 * time.Second):
			log.Println("Gate consumer không dừng trong thời gian chờ.")
		}
	}

	log.Println("Server đã tắt.")
}
