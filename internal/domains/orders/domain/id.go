package domain

import (
	"fmt"
	"math/rand/v2"
	"time"
)

const idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateOrderID returns an id shaped ORD-<yyyymmdd>-<5 alnum><2 digit>.
func GenerateOrderID(now time.Time) string {
	suffix := make([]byte, 5)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return fmt.Sprintf("ORD-%s-%s%02d", now.UTC().Format("20060102"), suffix, rand.IntN(100))
}

// FallbackOrderID is used once random ids keep colliding.
func FallbackOrderID(now time.Time) string {
	return fmt.Sprintf("ORD-%s-%d", now.UTC().Format("20060102"), now.UnixMilli())
}
