package ratelimit

// DefaultWindowSeconds is the counting window for mutation limits
const DefaultWindowSeconds = 60

// DefaultLimit is used when no per-minute limit is configured
const DefaultLimit int64 = 30

// LimitOrDefault returns limit, or DefaultLimit when limit is not positive
func LimitOrDefault(limit int64) int64 {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
