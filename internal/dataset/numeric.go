package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// parseNumeric parses a cell that may use either locale's separators
// ("1.234,5" or "1,234.5") and may carry a currency prefix.
// NaN and infinities are rejected.
func parseNumeric(s string) (float64, bool) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "R$")
	raw = strings.ReplaceAll(raw, "\u00A0", " ")
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "-" {
		return 0, false
	}
	var dec rune
	cpos := strings.LastIndex(raw, ",")
	dpos := strings.LastIndex(raw, ".")
	switch {
	case cpos >= 0 && dpos >= 0:
		if cpos > dpos {
			dec = ','
		} else {
			dec = '.'
		}
	case cpos >= 0:
		if ambiguousComma(raw, cpos) {
			return 0, false
		}
		dec = ','
	default:
		dec = '.'
	}
	for _, sep := range []rune{',', '.', ' '} {
		if sep != dec {
			raw = strings.ReplaceAll(raw, string(sep), "")
		}
	}
	if dec != '.' {
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ambiguousComma reports a lone comma followed by exactly three digits, as in
// "1,234", which reads as either a thousands group or a decimal fraction.
func ambiguousComma(raw string, cpos int) bool {
	if strings.Count(raw, ",") != 1 {
		return false
	}
	frac := raw[cpos+1:]
	if len(frac) != 3 {
		return false
	}
	for _, r := range frac {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseCount parses a whole-number cell such as the room count.
func parseCount(s string) (int, bool) {
	f, ok := parseNumeric(s)
	if !ok || f != math.Trunc(f) || f < 0 {
		return 0, false
	}
	return int(f), true
}

var unitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(.*)\s*\(([^)]+)\)\s*$`),  // rent amount (R$)
	regexp.MustCompile(`^(.*)\s*\[([^\]]+)\]\s*$`), // area [m2]
}

// splitUnits separates a trailing unit annotation from a column header.
func splitUnits(name string) (clean string, unit string) {
	s := strings.TrimSpace(name)
	for _, re := range unitPatterns {
		if m := re.FindStringSubmatch(s); len(m) >= 3 {
			base := strings.TrimSpace(m[1])
			u := strings.TrimSpace(m[2])
			if base != "" && u != "" {
				return base, u
			}
		}
	}
	return s, ""
}
