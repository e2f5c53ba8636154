package helpers

import (
	"context"
	"time"
)

func IsContextDone(ctx context.Context) bool {
	if ctx == nil {
		return true
	}
	select {
	case <-ctx.Done():
		return true
	default:
	}
	return false
}

// ParseUnixTime время из поля date Bot API
func ParseUnixTime(timeInt int64) time.Time {
	if timeInt == 0 {
		return time.Time{}
	}
	return time.Unix(timeInt, 0)
}
