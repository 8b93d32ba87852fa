package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// Server configuration
	Environment string
	TerminalID  string

	// Redis configuration
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// PubNub configuration
	PubNubPublishKey   string
	PubNubSubscribeKey string
	PubNubSecretKey    string

	// Transition window configuration
	EarlyCheckInWindow time.Duration

	// Sync configuration
	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	NetProbeInterval time.Duration

	// Session health configuration
	HeartbeatInterval   time.Duration
	RestartAfterUptime  time.Duration
	RestartCooldown     time.Duration
	MemoryThresholdByte uint64
	ScanHistoryKeep     int

	// Capture device and feedback configuration
	DeviceClass            string
	CameraFeedbackDuration time.Duration
	WedgeFeedbackDuration  time.Duration
	DataErrorDelay         time.Duration
	DeviceRetryDelay       time.Duration

	// Noise limiting
	NoiseScanLimit  int
	NoiseScanWindow time.Duration

	// Operator controls
	OperatorPINHash string

	// Monitoring
	EnableMetrics bool
}

func LoadConfig() *Config {
	return &Config{
		// Server
		Environment: getEnv("ENVIRONMENT", "development"),
		TerminalID:  getEnv("TERMINAL_ID", "kiosk-1"),

		// Redis
		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// PubNub
		PubNubPublishKey:   getEnv("PUBNUB_PUBLISH_KEY", ""),
		PubNubSubscribeKey: getEnv("PUBNUB_SUBSCRIBE_KEY", ""),
		PubNubSecretKey:    getEnv("PUBNUB_SECRET_KEY", ""),

		// Transition windows
		EarlyCheckInWindow: getEnvAsDuration("EARLY_CHECKIN_WINDOW", "10m"),

		// Sync
		RetryMaxAttempts: getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
		RetryBaseDelay:   getEnvAsDuration("RETRY_BASE_DELAY", "1s"),
		NetProbeInterval: getEnvAsDuration("NET_PROBE_INTERVAL", "10s"),

		// Session health
		HeartbeatInterval:   getEnvAsDuration("HEARTBEAT_INTERVAL", "30s"),
		RestartAfterUptime:  getEnvAsDuration("RESTART_AFTER_UPTIME", "4h"),
		RestartCooldown:     getEnvAsDuration("RESTART_COOLDOWN", "2s"),
		MemoryThresholdByte: uint64(getEnvAsInt("MEMORY_THRESHOLD_BYTES", 100*1024*1024)),
		ScanHistoryKeep:     getEnvAsInt("SCAN_HISTORY_KEEP", 10),

		// Capture device and feedback
		DeviceClass:            getEnv("DEVICE_CLASS", "wedge"),
		CameraFeedbackDuration: getEnvAsDuration("CAMERA_FEEDBACK_DURATION", "3s"),
		WedgeFeedbackDuration:  getEnvAsDuration("WEDGE_FEEDBACK_DURATION", "1500ms"),
		DataErrorDelay:         getEnvAsDuration("DATA_ERROR_DELAY", "2s"),
		DeviceRetryDelay:       getEnvAsDuration("DEVICE_RETRY_DELAY", "5s"),

		// Noise limiting
		NoiseScanLimit:  getEnvAsInt("NOISE_SCAN_LIMIT", 30),
		NoiseScanWindow: getEnvAsDuration("NOISE_SCAN_WINDOW", "1m"),

		// Operator controls
		OperatorPINHash: getEnv("OPERATOR_PIN_HASH", ""),

		// Monitoring
		EnableMetrics: getEnvAsBool("ENABLE_METRICS", true),
	}
}

// FeedbackDuration returns how long confirmations stay on screen for the
// configured device class. Camera terminals hold results longer because the
// operator is further from the display than at a wedge counter.
func (c *Config) FeedbackDuration() time.Duration {
	if c.DeviceClass == "camera" {
		return c.CameraFeedbackDuration
	}
	return c.WedgeFeedbackDuration
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	// If parsing fails, try to parse default value
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
