package craft

import "fmt"

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// lcm computes the least common multiple of two positive quantities. A
// non-positive operand means invalid data slipped past construction checks,
// so it is reported instead of producing a garbage scale factor.
func lcm(a, b int) (int, error) {
	if a <= 0 || b <= 0 {
		return 0, fmt.Errorf("lcm requires positive quantities, got %d and %d", a, b)
	}
	return a / gcd(a, b) * b, nil
}
