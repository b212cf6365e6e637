// Package cache provides the short-lived keys that keep two payment
// submissions for the same voucher from running at once.
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// InFlightGuard is a set of keys with a lifetime. A key is held from a
// successful Acquire until Release or until its TTL lapses.
type InFlightGuard interface {
	// Acquire takes key and returns the owner token of the new hold. It
	// reports false when the key is already held.
	Acquire(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	// Release frees key only while token still owns it. Releasing a key
	// that expired or was taken over is not an error.
	Release(ctx context.Context, key, token string) error
	Close() error
}

func newToken() string {
	return uuid.NewString()
}

// VoucherKey is the guard key of one voucher's payment mutations
func VoucherKey(studentID, voucherNumber string) string {
	return strings.Join([]string{"voucher", studentID, voucherNumber}, ":")
}
