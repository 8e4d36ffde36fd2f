package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	AWSRegion        string
	SQSEventQueueURL string
	IoTMQTTEndpoint  string

	JWTSecret          string        // Secret key cho JWT
	JWTExpirationHours time.Duration // Thời gian hết hạn của JWT

	// BillingTimezone: múi giờ địa phương của bãi đỗ, quyết định ranh giới
	// ngày khi tính phí và các bucket thống kê. Tính phí theo UTC sẽ cắt
	// ngày sai cho mọi bãi không nằm ở UTC.
	BillingTimezone *time.Location

	// DeviceEventLogRetention: giữ log sự kiện thiết bị trong bao lâu
	// trước khi job dọn dẹp xóa.
	DeviceEventLogRetention time.Duration
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24")) // Mặc định 24 giờ

	tzName := getEnv("BILLING_TIMEZONE", "Asia/Ho_Chi_Minh")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("Múi giờ BILLING_TIMEZONE không hợp lệ '%s': %v", tzName, err)
	}

	retentionDays, _ := strconv.Atoi(getEnv("DEVICE_EVENT_LOG_RETENTION_DAYS", "30"))

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "youruser"),         // << THAY THẾ
		DBPassword: getEnv("DB_PASSWORD", "yourpassword"), // << THAY THẾ
		DBName:     getEnv("DB_NAME", "parking_facility_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		AWSRegion:        getEnv("AWS_REGION", "ap-southeast-1"),
		SQSEventQueueURL: getEnv("SQS_EVENT_QUEUE_URL", ""), // << ĐIỀN URL SQS QUEUE
		IoTMQTTEndpoint:  getEnv("IOT_MQTT_ENDPOINT", ""),   // << ĐIỀN AWS IOT ENDPOINT

		JWTSecret:          getEnv("JWT_SECRET", "your-very-secret-key-for-jwt-!@#$"), // << THAY BẰNG SECRET KEY MẠNH HƠN
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		BillingTimezone:         loc,
		DeviceEventLogRetention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}
