package title

import "github.com/shopspring/decimal"

// RatingPlaces is the number of fractional digits kept in a rating.
const RatingPlaces = 2

// MeanScore returns the arithmetic mean of scores, or nil when there are none.
// A title without reviews has no rating; zero would read as a real score.
func MeanScore(scores []int) *float64 {
	if len(scores) == 0 {
		return nil
	}

	sum := decimal.Zero
	for _, s := range scores {
		sum = sum.Add(decimal.NewFromInt(int64(s)))
	}

	mean := sum.Div(decimal.NewFromInt(int64(len(scores))))
	return roundRating(mean)
}

// NormalizeRating rounds an average computed by the store. Nil stays nil.
func NormalizeRating(avg *float64) *float64 {
	if avg == nil {
		return nil
	}
	return roundRating(decimal.NewFromFloat(*avg))
}

func roundRating(d decimal.Decimal) *float64 {
	f, _ := d.Round(RatingPlaces).Float64()
	return &f
}
