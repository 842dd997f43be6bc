package livepager

const (
	MinLimit     = 1
	MaxLimit     = 100
	DefaultLimit = 50
)

// IsValidLimitMax reports whether limit lies within [MinLimit, maxLimit].
func IsValidLimitMax(limit int, maxLimit int) bool {
	return limit >= MinLimit && limit <= maxLimit
}

// ValidateLimitMax resolves an optional limit. An absent limit yields
// DefaultLimit capped by maxLimit, a present one must be within
// [MinLimit, maxLimit]. maxLimit itself must be within [MinLimit, MaxLimit].
func ValidateLimitMax(limit *int, maxLimit int) (int, error) {
	if !IsValidLimitMax(maxLimit, MaxLimit) {
		return 0, invalidArgument("max limit %d is out of range [%d, %d]", maxLimit, MinLimit, MaxLimit)
	}

	if limit == nil {
		return min(DefaultLimit, maxLimit), nil
	}

	if !IsValidLimitMax(*limit, maxLimit) {
		return 0, invalidArgument("limit %d is out of range [%d, %d]", *limit, MinLimit, maxLimit)
	}

	return *limit, nil
}

func ValidateLimit(limit *int) (int, error) {
	return ValidateLimitMax(limit, MaxLimit)
}
