package loghub

import (
	"fmt"
	"strconv"
	"time"

	"github.com/uncleGen/aliyun-spark-sdk/errors"
)

// Configuration keys consumed by the reader. The host engine passes a flat
// string-keyed mapping; position values are checkpointed by the host, not
// by this core.
const (
	KeyProject         = "sls.project"
	KeyStore           = "sls.store"
	KeyAccessKeyID     = "access.key.id"
	KeyAccessKeySecret = "access.key.secret"
	KeyEndpoint        = "endpoint"
	KeyNumRetries      = "fetchOffset.numRetries"
	KeyRetryIntervalMs = "fetchOffset.retryIntervalMs"
)

const (
	defaultNumRetries      = 3
	defaultRetryIntervalMs = 1000
)

// readerConfig is the parsed, validated reader configuration
type readerConfig struct {
	project         string
	store           string
	accessKeyID     string
	accessKeySecret string
	endpoint        string
	maxAttempts     int
	retryInterval   time.Duration
}

// parseConfig validates the flat configuration mapping eagerly. Every
// required key must be present and non-empty; the first missing key fails
// the whole construction with an error naming it.
func parseConfig(conf map[string]string) (readerConfig, error) {
	var cfg readerConfig

	required := []struct {
		key string
		dst *string
	}{
		{KeyProject, &cfg.project},
		{KeyStore, &cfg.store},
		{KeyAccessKeyID, &cfg.accessKeyID},
		{KeyAccessKeySecret, &cfg.accessKeySecret},
		{KeyEndpoint, &cfg.endpoint},
	}
	for _, r := range required {
		v, ok := conf[r.key]
		if !ok || v == "" {
			return cfg, errors.MissingKey("Reader", r.key)
		}
		*r.dst = v
	}

	attempts, err := intValue(conf, KeyNumRetries, defaultNumRetries)
	if err != nil {
		return cfg, err
	}
	if attempts <= 0 {
		return cfg, errors.WrapConfig(
			fmt.Errorf("%w: %s must be positive, got %d", errors.ErrInvalidConfig, KeyNumRetries, attempts),
			"Reader", "parseConfig", "validate retries")
	}
	cfg.maxAttempts = attempts

	intervalMs, err := intValue(conf, KeyRetryIntervalMs, defaultRetryIntervalMs)
	if err != nil {
		return cfg, err
	}
	if intervalMs < 0 {
		return cfg, errors.WrapConfig(
			fmt.Errorf("%w: %s cannot be negative, got %d", errors.ErrInvalidConfig, KeyRetryIntervalMs, intervalMs),
			"Reader", "parseConfig", "validate retry interval")
	}
	cfg.retryInterval = time.Duration(intervalMs) * time.Millisecond

	return cfg, nil
}

func intValue(conf map[string]string, key string, def int) (int, error) {
	v, ok := conf[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.WrapConfig(
			fmt.Errorf("%w: %s=%q is not an integer", errors.ErrInvalidConfig, key, v),
			"Reader", "parseConfig", "parse "+key)
	}
	return n, nil
}
