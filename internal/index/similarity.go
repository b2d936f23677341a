package index

import "math"

// Cosine returns the cosine similarity of a and b. Identical vectors score
// exactly 1, and a zero vector scores 0 against anything.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	identical := true
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		if a[i] != b[i] {
			identical = false
		}
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	if identical {
		return 1
	}

	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case score > 1:
		return 1
	case score < -1:
		return -1
	}
	return score
}
