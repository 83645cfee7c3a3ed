package craft

import "cmp"

// CompareResult is the outcome of a three-way comparison.
type CompareResult int

const (
	Less  CompareResult = -1
	Equal CompareResult = 0
	More  CompareResult = 1
)

// String returns a human-readable name for the result.
func (c CompareResult) String() string {
	switch c {
	case Less:
		return "Less"
	case More:
		return "More"
	default:
		return "Equal"
	}
}

// Invert swaps Less and More; Equal is unchanged.
func (c CompareResult) Invert() CompareResult {
	switch c {
	case Less:
		return More
	case More:
		return Less
	default:
		return Equal
	}
}

// compare three-ways two ordered values.
func compare[T cmp.Ordered](a, b T) CompareResult {
	return CompareResult(cmp.Compare(a, b))
}
