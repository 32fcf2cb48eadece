package game

import (
	"iter"

	"github.com/chewxy/math32"
)

// Mean ...
func Mean(data iter.Seq[float32]) float32 {
	var sum, count float32
	for v := range data {
		sum += v
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / count
}

// Variance ...
func Variance(data iter.Seq[float32]) float32 {
	mean := Mean(data)

	var variance, count float32
	for v := range data {
		variance += (v - mean) * (v - mean)
		count++
	}
	if count == 0 {
		return 0
	}
	return variance / count
}

// StandardDeviation ...
func StandardDeviation(data iter.Seq[float32]) float32 {
	return math32.Sqrt(Variance(data))
}
