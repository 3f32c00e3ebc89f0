package domain

import (
	"fmt"
	"math/rand"
	"time"
)

// NewComplaintNumber generates a citizen-facing tracking number of the
// form SVL<year><6 digits of clock><3 random digits>, e.g.
// SVL2026456789042. Uniqueness is enforced by the database; callers
// retry on collision.
func NewComplaintNumber() string {
	now := time.Now()
	clock := now.UnixMilli() % 1000000
	suffix := rand.Intn(1000)

	return fmt.Sprintf("SVL%d%06d%03d", now.Year(), clock, suffix)
}
