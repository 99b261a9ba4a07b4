package utils

import "math"

// RoundFloat rounds a float64 to a specified number of decimal places.
func RoundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}

// SumFloats adds values, treating an empty slice as 0.
func SumFloats(values ...float64) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return total
}
