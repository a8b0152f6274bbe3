// Package config loads all daemon configuration from the environment, with
// an optional .env file. Every knob has a built-in default; invalid values
// fall back to the default with a logged warning rather than failing startup.
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"sltp-overlay/internal/model"
)

// Config holds all env-parsed configuration for the overlay daemon.
type Config struct {
	HTTPAddr    string // companion websocket + health
	MetricsAddr string
	LogLevel    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	StateKey      string
	StateTTL      time.Duration

	SQLitePath string

	PlatformBaseURL string
	PlatformToken   string
	AutoApply       bool

	AlertWebhookURL string

	Debounce         time.Duration
	DragPollInterval time.Duration
	DOMPollInterval  time.Duration
	WatchdogInterval time.Duration
	DedupWindow      time.Duration

	ChartWaitAttempts int
	ChartWaitInterval time.Duration

	DOMCreatesOrder bool

	Risk model.RiskConfig
}

// Load reads the optional .env file and all environment variables.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Printf("[config] loaded .env")
	}

	return Config{
		HTTPAddr:    getEnv("OVERLAY_HTTP_ADDR", ":8090"),
		MetricsAddr: getEnv("OVERLAY_METRICS_ADDR", ":9100"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		StateKey:      getEnv("STATE_KEY", "sltp:order_state"),
		StateTTL:      getEnvDurationMs("STATE_TTL_MS", 24*time.Hour),

		SQLitePath: getEnv("SQLITE_PATH", "data/orders.db"),

		PlatformBaseURL: getEnv("PLATFORM_BASE_URL", ""),
		PlatformToken:   getEnv("PLATFORM_TOKEN", ""),
		AutoApply:       getEnvBool("AUTO_APPLY_BRACKETS", true),

		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),

		Debounce:         getEnvDurationMs("DEBOUNCE_MS", 900*time.Millisecond),
		DragPollInterval: getEnvDurationMs("DRAG_POLL_MS", 500*time.Millisecond),
		DOMPollInterval:  getEnvDurationMs("DOM_POLL_MS", 500*time.Millisecond),
		WatchdogInterval: getEnvDurationMs("WATCHDOG_MS", 2000*time.Millisecond),
		DedupWindow:      getEnvDurationMs("DEDUP_WINDOW_MS", 2000*time.Millisecond),

		ChartWaitAttempts: getEnvInt("CHART_WAIT_ATTEMPTS", 60),
		ChartWaitInterval: getEnvDurationMs("CHART_WAIT_INTERVAL_MS", 1000*time.Millisecond),

		DOMCreatesOrder: getEnvBool("DOM_CREATES_ORDER", false),

		Risk: loadRisk(),
	}
}

// DefaultRisk returns the built-in risk configuration.
func DefaultRisk() model.RiskConfig {
	return model.RiskConfig{
		RiskMode:    model.RiskPercent,
		RiskPercent: decimal.NewFromInt(2),
		RiskFixed:   decimal.NewFromInt(500),
		AccountSize: decimal.NewFromInt(50000),
		DefaultSL:   decimal.NewFromInt(100),
		DefaultTP:   decimal.NewFromInt(200),
		TPRatio:     decimal.NewFromInt(2),
		UseRatio:    true,
		SLColor:     "#f23645",
		TPColor:     "#089981",
		LineWidth:   2,
		ShowLabels:  true,
	}
}

func loadRisk() model.RiskConfig {
	r := DefaultRisk()

	switch getEnv("RISK_MODE", string(r.RiskMode)) {
	case string(model.RiskPercent):
		r.RiskMode = model.RiskPercent
	case string(model.RiskFixed):
		r.RiskMode = model.RiskFixed
	default:
		log.Printf("[config] invalid RISK_MODE, using %s", r.RiskMode)
	}

	r.RiskPercent = getEnvDecimal("RISK_PERCENT", r.RiskPercent)
	r.RiskFixed = getEnvDecimal("RISK_FIXED", r.RiskFixed)
	r.AccountSize = getEnvDecimal("ACCOUNT_SIZE", r.AccountSize)
	r.DefaultSL = getEnvDecimal("DEFAULT_SL_DOLLARS", r.DefaultSL)
	r.DefaultTP = getEnvDecimal("DEFAULT_TP_DOLLARS", r.DefaultTP)
	r.TPRatio = getEnvDecimal("TP_RATIO", r.TPRatio)
	r.UseRatio = getEnvBool("USE_TP_RATIO", r.UseRatio)
	r.SLColor = getEnv("SL_COLOR", r.SLColor)
	r.TPColor = getEnv("TP_COLOR", r.TPColor)
	r.LineWidth = getEnvInt("LINE_WIDTH", r.LineWidth)
	r.ShowLabels = getEnvBool("SHOW_LABELS", r.ShowLabels)

	return NormalizeRisk(r)
}

// NormalizeRisk replaces out-of-range fields with their defaults so a bad
// saved config can never wedge the calculation engine. Each fallback is
// logged once at load/update time.
func NormalizeRisk(r model.RiskConfig) model.RiskConfig {
	def := DefaultRisk()

	if r.RiskMode != model.RiskPercent && r.RiskMode != model.RiskFixed {
		log.Printf("[config] risk mode %q invalid, using %s", r.RiskMode, def.RiskMode)
		r.RiskMode = def.RiskMode
	}
	if !r.RiskPercent.IsPositive() {
		log.Printf("[config] risk percent %s invalid, using %s", r.RiskPercent, def.RiskPercent)
		r.RiskPercent = def.RiskPercent
	}
	if !r.RiskFixed.IsPositive() {
		log.Printf("[config] fixed risk %s invalid, using %s", r.RiskFixed, def.RiskFixed)
		r.RiskFixed = def.RiskFixed
	}
	if !r.AccountSize.IsPositive() {
		log.Printf("[config] account size %s invalid, using %s", r.AccountSize, def.AccountSize)
		r.AccountSize = def.AccountSize
	}
	if !r.DefaultSL.IsPositive() {
		log.Printf("[config] default SL %s invalid, using %s", r.DefaultSL, def.DefaultSL)
		r.DefaultSL = def.DefaultSL
	}
	if !r.DefaultTP.IsPositive() {
		log.Printf("[config] default TP %s invalid, using %s", r.DefaultTP, def.DefaultTP)
		r.DefaultTP = def.DefaultTP
	}
	if !r.TPRatio.IsPositive() {
		log.Printf("[config] TP ratio %s invalid, using %s", r.TPRatio, def.TPRatio)
		r.TPRatio = def.TPRatio
	}
	if r.LineWidth <= 0 {
		r.LineWidth = def.LineWidth
	}
	if r.SLColor == "" {
		r.SLColor = def.SLColor
	}
	if r.TPColor == "" {
		r.TPColor = def.TPColor
	}
	return r
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDurationMs(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil || ms <= 0 {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

func getEnvDecimal(key string, fallback decimal.Decimal) decimal.Decimal {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}
