package providers

import (
	"math/rand"
	"time"
)

// Fabricated-field defaults. The upstreams report neither engagement counts
// nor sale windows, so the product layer displays estimated values. Items
// carry the names of fabricated fields in SyntheticFields.
const (
	saleWindowDays   = 3
	defaultPerformer = "Unknown"
)

// SyntheticLikes returns an estimated like count in [50, 5050).
func SyntheticLikes() int {
	return 50 + rand.Intn(5000)
}

// SyntheticViews returns an estimated view count in [1000, 101000).
func SyntheticViews() int {
	return 1000 + rand.Intn(100000)
}

// SyntheticRating returns an estimated rating in [3.5, 5.0], rounded to one
// decimal place.
func SyntheticRating() float64 {
	return float64(35+rand.Intn(16)) / 10
}

// SyntheticReviews returns an estimated review count in [5, 505).
func SyntheticReviews() int {
	return 5 + rand.Intn(500)
}

// SaleEndsAt returns the fabricated sale end date: now plus a fixed number of
// days, date precision only.
func SaleEndsAt(now time.Time) string {
	return now.AddDate(0, 0, saleWindowDays).Format("2006-01-02")
}

// DefaultPerformer is the performer name used when the upstream omits one.
func DefaultPerformer() string {
	return defaultPerformer
}
