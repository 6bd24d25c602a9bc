package main

// MapValue clamps x into [inMin, inMax] and maps it linearly onto
// [outMin, outMax].
func MapValue(x, inMin, inMax, outMin, outMax float64) float64 {
	if x < inMin {
		x = inMin
	} else if x > inMax {
		x = inMax
	}
	return (x-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}
