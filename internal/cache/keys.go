package cache

import (
	"strconv"
	"strings"
	"time"

	"nseopt/internal/config"
)

// Namespace prefixes every key written by the fetcher.
const Namespace = "nseopt"

// TTLSet holds the configured cache lifetimes.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts second-based config values. Zero keeps the default,
// a negative value disables expiry.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  seconds(cfg.Short, 10*time.Second),
		Medium: seconds(cfg.Medium, time.Minute),
		Long:   seconds(cfg.Long, 24*time.Hour),
	}
}

func seconds(v int, fallback time.Duration) time.Duration {
	switch {
	case v < 0:
		return 0
	case v == 0:
		return fallback
	default:
		return time.Duration(v) * time.Second
	}
}

// ExpiryListKey addresses the expiry dates listed for a symbol in one year,
// e.g. nseopt:expiries:TCS:2023.
func ExpiryListKey(symbol string, year int) string {
	return strings.Join([]string{Namespace, "expiries", strings.ToUpper(strings.TrimSpace(symbol)), strconv.Itoa(year)}, ":")
}

// ExpiryListTTL uses the long TTL; only closed years are cached.
func ExpiryListTTL(ttl TTLSet) time.Duration {
	return ttl.Long
}
