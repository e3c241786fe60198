package providers

import (
	"regexp"
	"strconv"
)

// DefaultPrice is used when an upstream price string is absent or cannot be
// parsed.
const DefaultPrice = 980

var nonDigit = regexp.MustCompile(`[^0-9]`)

// ParsePrice extracts a yen amount from an upstream price string. Upstream
// values mix currency symbols, thousands separators and range markers
// ("1,380円", "400円〜"); everything that is not a digit is stripped before
// parsing. Parse failures never propagate: the result degrades to
// DefaultPrice.
func ParsePrice(raw string) int {
	digits := nonDigit.ReplaceAllString(raw, "")
	if digits == "" {
		return DefaultPrice
	}

	n, err := strconv.Atoi(digits)
	if err != nil {
		return DefaultPrice
	}
	return n
}
