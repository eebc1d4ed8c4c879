package mapper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"treasury_dashboard/internal/domain/entity"
	dto "treasury_dashboard/internal/entity"
)

// DefaultEpochMillisThreshold separates epoch seconds (at or below) from epoch
// milliseconds (above). It misreads millisecond stamps before 2001-09-09 and second stamps
// after year 33658.
const DefaultEpochMillisThreshold = 1e12

// maxDateMillis is the largest magnitude a calendar date may have.
const maxDateMillis = 8.64e15

var (
	// Leading decimal literal, as accepted by a lenient float parser.
	numberPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)
	infPrefix    = regexp.MustCompile(`^[+-]?Infinity`)
)

// Epoch is the zero instant mappers fall back to for missing or unreadable dates.
var Epoch = time.Unix(0, 0).UTC()

// parseLeadingFloat parses the longest numeric prefix of s after leading whitespace.
func parseLeadingFloat(s string) (float64, bool) {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	if m := infPrefix.FindString(s); m != "" {
		if strings.HasPrefix(m, "-") {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	}
	m := numberPrefix.FindString(s)
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		// Out-of-range exponents still carry a usable value.
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// ParseNumber parses text leniently: the leading numeric part counts ("12abc" is 12).
// Text with no numeric prefix and non-finite results yield 0.
func ParseNumber(s string) float64 {
	f, ok := parseLeadingFloat(s)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// ToNumber converts a loose JSON scalar to a float. Null, booleans, objects and
// non-numeric text yield 0; it never fails.
func ToNumber(v dto.Value) float64 {
	switch {
	case v.IsNull():
		return 0
	case v.IsNumber(), v.IsString():
		return ParseNumber(v.Raw())
	default:
		return 0
	}
}

// canonicalNumber renders f the way a number prints back to text, so "1700000000"
// round-trips and "1.50" or "0x10" do not.
func canonicalNumber(f float64) string {
	abs := math.Abs(f)
	if abs != 0 && (abs >= 1e21 || abs < 1e-6) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func fromEpoch(n, threshold float64) (time.Time, bool) {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return Epoch, false
	}
	millis := n
	if n <= threshold {
		millis = n * 1000
	}
	if math.Abs(millis) > maxDateMillis {
		return Epoch, false
	}
	return time.UnixMilli(int64(millis)).UTC(), true
}

// Date-only and offset-less layouts are read as UTC.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006/01/02 15:04:05",
	"2006/01/02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
	"Mon Jan 2 2006",
	"January 2, 2006 15:04:05",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// ParseDateText parses a timestamp string: a canonical decimal number is an epoch
// (seconds or milliseconds per threshold), anything else is tried as a calendar date.
func ParseDateText(s string, threshold float64) (time.Time, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Epoch, false
	}
	if n, ok := parseLeadingFloat(trimmed); ok && trimmed == canonicalNumber(n) {
		if t, ok := fromEpoch(n, threshold); ok {
			return t, true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.UTC(), true
		}
	}
	return Epoch, false
}

// ToDate converts a loose JSON timestamp (epoch seconds, epoch milliseconds, numeric
// string or date text) to a time. Missing or unreadable input yields Epoch; it never fails.
func ToDate(v dto.Value, threshold float64) time.Time {
	if threshold <= 0 {
		threshold = DefaultEpochMillisThreshold
	}
	switch {
	case v.IsNull():
		return Epoch
	case v.IsNumber():
		n, err := strconv.ParseFloat(v.Raw(), 64)
		if err != nil {
			return Epoch
		}
		t, _ := fromEpoch(n, threshold)
		return t
	case v.IsString():
		t, _ := ParseDateText(v.Raw(), threshold)
		return t
	default:
		return Epoch
	}
}

// ResolveName returns the first candidate that is non-blank and not "unknown" (any case),
// else the first non-blank candidate, else "Unknown". Results are trimmed.
func ResolveName(candidates ...*string) string {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if s := strings.TrimSpace(*c); s != "" && !strings.EqualFold(s, entity.UnknownPartyName) {
			return s
		}
	}
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if s := strings.TrimSpace(*c); s != "" {
			return s
		}
	}
	return entity.UnknownPartyName
}

// ResolveAddress returns the first non-blank candidate, trimmed, or "" when there is none.
func ResolveAddress(candidates ...*string) string {
	for _, c := range candidates {
		if c == nil {
			continue
		}
		if s := strings.TrimSpace(*c); s != "" {
			return s
		}
	}
	return ""
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func trimmed(p *string) string {
	return strings.TrimSpace(str(p))
}

// optionalInt reads v as an integer when it carries a finite number.
func optionalInt(v dto.Value) *int {
	if v.IsNull() {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw()), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	i := int(f)
	return &i
}

func optionalInt64(v dto.Value) *int64 {
	if v.IsNull() {
		return nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.Raw()), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	i := int64(f)
	return &i
}

// resolveSymbol has the same first-non-blank rule as addresses.
func resolveSymbol(candidates ...*string) string {
	return ResolveAddress(candidates...)
}
