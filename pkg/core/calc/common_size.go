package calc

// CommonSize expresses each part as a ratio of base, rounded to 4 places.
// A zero base yields zero shares.
func CommonSize(parts map[string]float64, base float64) map[string]float64 {
	shares := make(map[string]float64, len(parts))
	for k, v := range parts {
		shares[k] = RoundTo(SafeDiv(v, base), 4)
	}
	return shares
}
