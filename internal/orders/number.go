package orders

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"
)

const (
	orderNumberPrefix = "ORD-"
	suffixLength      = 4
	base36Alphabet    = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// NumberGenerator produces a human-readable order number for the given instant.
type NumberGenerator func(now time.Time) (string, error)

// GenerateOrderNumber returns "ORD-<base36 unix millis>-<4 random base36>".
// Uniqueness is enforced by the orders_order_number_key constraint; callers
// retry on collision.
func GenerateOrderNumber(now time.Time) (string, error) {
	stamp := strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36))

	var suffix strings.Builder
	suffix.Grow(suffixLength)
	max := big.NewInt(int64(len(base36Alphabet)))
	for i := 0; i < suffixLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		suffix.WriteByte(base36Alphabet[n.Int64()])
	}
	return orderNumberPrefix + stamp + "-" + suffix.String(), nil
}
