package config

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
)

const (
	defaultMongoURI     = "mongodb://localhost:27017"
	defaultMongoDB      = "sehatly"
	defaultRedisAddr    = "localhost:6379"
	defaultJWTSecret    = "change-me-in-production"
	defaultAppPort      = "8080"
	defaultAppEnv       = "local"
	defaultCheckoutBase = "http://localhost:3000"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load reads config/app.json and .env (in that order, later wins) on top of
// the built-in defaults. Safe to call from every accessor; runs once.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_PORT":              defaultAppPort,
		"APP_ENV":               defaultAppEnv,
		"MONGO_URI":             defaultMongoURI,
		"MONGO_DB":              defaultMongoDB,
		"REDIS_ADDR":            defaultRedisAddr,
		"REDIS_PASSWORD":        "",
		"JWT_SECRET":            defaultJWTSecret,
		"STRIPE_SECRET_KEY":     "",
		"STRIPE_WEBHOOK_SECRET": "",
		"CHECKOUT_BASE_URL":     defaultCheckoutBase,
		"ANALYTICS_VISITORS":    "1000",
	}
}

func AppPort() string { _ = Load(); return get("APP_PORT", defaultAppPort) }
func AppEnv() string  { _ = Load(); return get("APP_ENV", defaultAppEnv) }

func MongoURI() string { _ = Load(); return get("MONGO_URI", defaultMongoURI) }
func MongoDB() string  { _ = Load(); return get("MONGO_DB", defaultMongoDB) }

func RedisAddr() string     { _ = Load(); return get("REDIS_ADDR", defaultRedisAddr) }
func RedisPassword() string { _ = Load(); return get("REDIS_PASSWORD", "") }

func JWTSecret() string { _ = Load(); return get("JWT_SECRET", defaultJWTSecret) }

func StripeSecretKey() string     { _ = Load(); return get("STRIPE_SECRET_KEY", "") }
func StripeWebhookSecret() string { _ = Load(); return get("STRIPE_WEBHOOK_SECRET", "") }

// CheckoutBaseURL is the storefront origin used for payment redirect URLs.
func CheckoutBaseURL() string { _ = Load(); return get("CHECKOUT_BASE_URL", defaultCheckoutBase) }

// AnalyticsVisitors is the visitor-count placeholder used by the conversion
// rate metric until real traffic instrumentation lands.
// TODO: replace with tracked visit counts once the storefront emits them.
func AnalyticsVisitors() int {
	_ = Load()
	n, err := strconv.Atoi(get("ANALYTICS_VISITORS", "1000"))
	if err != nil || n < 0 {
		return 1000
	}
	return n
}

// ── Mail ─────────────────────────────────────────────────────────────────────

func MailHost() string     { _ = Load(); return get("MAIL_HOST", "smtp.mailtrap.io") }
func MailPort() string     { _ = Load(); return get("MAIL_PORT", "587") }
func MailUsername() string { _ = Load(); return get("MAIL_USERNAME", "") }
func MailPassword() string { _ = Load(); return get("MAIL_PASSWORD", "") }
func MailFrom() string     { _ = Load(); return get("MAIL_FROM", "noreply@sehatly.app") }
func MailFromName() string { _ = Load(); return get("MAIL_FROM_NAME", "Sehatly") }

// ── Storage ──────────────────────────────────────────────────────────────────

func StorageDefault() string   { _ = Load(); return get("STORAGE_DISK", "local") }
func StorageLocalRoot() string { _ = Load(); return get("STORAGE_LOCAL_ROOT", "storage") }
func StorageURL() string       { _ = Load(); return get("STORAGE_URL", "http://localhost:8080/storage") }

func StorageS3Bucket() string   { _ = Load(); return get("S3_BUCKET", "") }
func StorageS3Region() string   { _ = Load(); return get("S3_REGION", "us-east-1") }
func StorageS3Key() string      { _ = Load(); return get("S3_KEY", "") }
func StorageS3Secret() string   { _ = Load(); return get("S3_SECRET", "") }
func StorageS3Endpoint() string { _ = Load(); return get("S3_ENDPOINT", "") }
func StorageS3URL() string      { _ = Load(); return get("S3_URL", "") }

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		s, ok := val.(string)
		if !ok {
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		idx := strings.IndexByte(line, '=')
		if idx <= 0 {
			continue
		}

		key := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}
		out[key] = value
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	return nil
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

// Get reads any config key by name with an optional fallback.
// Keys from .env and app.json are available after config.Load().
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}
