package services

import "math"

// RatingFromTotals computes a 0-10 rating from raw answer counts: the
// percentage of correct answers rounded to the nearest whole percent, then
// scaled down by ten. A user with no answered questions rates 0.
func RatingFromTotals(correct, answered int64) float64 {
	if answered <= 0 {
		return 0
	}
	percent := float64(correct) / float64(answered) * 100
	return math.Round(percent) / 10
}

// AverageRatingFromTotals computes the company-wide correctness ratio on a
// 0-1 scale.
func AverageRatingFromTotals(correct, answered int64) float64 {
	if answered <= 0 {
		return 0
	}
	return float64(correct) / float64(answered)
}
