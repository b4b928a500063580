package shipment

import (
	"strconv"
	"strings"
	"unicode"
)

// Weight is the structured form of a free-form weight such as "500kg".
type Weight struct {
	Value int64
	Unit  string
	Raw   string
	// Parsed is false when no leading integer was found and Value fell back to zero.
	Parsed bool
}

// ParseWeight reads the leading integer of raw. Leading whitespace and a sign are
// accepted; fractional digits are ignored. Input without a leading integer is not
// an error: it yields Value 0 with Parsed false.
func ParseWeight(raw string) Weight {
	w := Weight{Raw: raw}
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		w.Unit = strings.TrimSpace(s)
		return w
	}

	value, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		// overflow
		w.Unit = strings.TrimSpace(s[end:])
		return w
	}

	rest := s[end:]
	if strings.HasPrefix(rest, ".") {
		rest = strings.TrimLeftFunc(rest[1:], unicode.IsDigit)
	}

	w.Value = value
	w.Unit = strings.ToLower(strings.TrimSpace(rest))
	w.Parsed = true
	return w
}
