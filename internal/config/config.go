package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort  string
	StoreDriver string // "postgres" hoặc "memory"

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion       string
	SQSGateQueueURL string

	JWTSecret          string
	JWTExpirationHours time.Duration

	// Cấu hình cho engine phân bổ chỗ đỗ
	CandidateLimit int // Số chỗ đỗ tối đa được chấm điểm cho mỗi lượt xe vào

	// Cấu hình tính phí. Mọi giá trị mặc định của phần tính phí nằm ở đây.
	DefaultBaseRate    float64 // Đơn giá theo giờ khi xe không khai báo giá
	GracePeriodMinutes int
	DailyMultiplier    float64
	DailyCap           float64
	MonthlyMultiplier  float64
	MonthlyCap         float64
	ChargingPremium    float64 // Phụ phí mỗi giờ cho chỗ đỗ có trụ sạc
	CoveredPremium     float64 // Phụ phí mỗi giờ cho chỗ đỗ có mái che

	// Cấu hình seed dữ liệu ban đầu
	SeedLevels           int
	SeedSectionsPerLevel int
	SeedSpotsPerSection  int
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))

	return &Config{
		ServerPort:  getEnv("SERVER_PORT", "8080"),
		StoreDriver: getEnv("STORE_DRIVER", "postgres"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "parking"),
		DBPassword: getEnv("DB_PASSWORD", "parking"),
		DBName:     getEnv("DB_NAME", "city_parking"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:       getEnv("AWS_REGION", "ap-southeast-1"),
		SQSGateQueueURL: getEnv("SQS_GATE_QUEUE_URL", ""),

		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		CandidateLimit: getEnvInt("ALLOCATION_CANDIDATE_LIMIT", 10),

		DefaultBaseRate:    getEnvFloat("FEE_DEFAULT_BASE_RATE", 5.0),
		GracePeriodMinutes: getEnvInt("FEE_GRACE_PERIOD_MINUTES", 5),
		DailyMultiplier:    getEnvFloat("FEE_DAILY_MULTIPLIER", 0.8),
		DailyCap:           getEnvFloat("FEE_DAILY_CAP", 50.0),
		MonthlyMultiplier:  getEnvFloat("FEE_MONTHLY_MULTIPLIER", 0.5),
		MonthlyCap:         getEnvFloat("FEE_MONTHLY_CAP", 500.0),
		ChargingPremium:    getEnvFloat("FEE_CHARGING_PREMIUM", 2.0),
		CoveredPremium:     getEnvFloat("FEE_COVERED_PREMIUM", 0.5),

		SeedLevels:           getEnvInt("SEED_LEVELS", 3),
		SeedSectionsPerLevel: getEnvInt("SEED_SECTIONS_PER_LEVEL", 3),
		SeedSpotsPerSection:  getEnvInt("SEED_SPOTS_PER_SECTION", 10),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
		log.Printf("Biến môi trường '%s' không phải số nguyên hợp lệ, sử dụng giá trị mặc định %d", key, fallback)
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
		log.Printf("Biến môi trường '%s' không phải số thực hợp lệ, sử dụng giá trị mặc định %g", key, fallback)
	}
	return fallback
}
