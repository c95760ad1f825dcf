package engine

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

// ValueParser converts an operand element's raw value into a number.
type ValueParser func(raw string) (float64, error)

// ResultFormatter converts a computed result into the text written to the
// result element.
type ResultFormatter func(result float64) string

// Config holds the value conversion hooks of an engine.
//
// Library-wide defaults live behind SetDefaults. Each engine snapshots the
// defaults when it is created, so later SetDefaults calls never reach an
// existing engine, and per-engine options never reach the defaults.
type Config struct {
	ValueParser     ValueParser
	ResultFormatter ResultFormatter
}

// withFallback fills unset hooks of c from fb.
func (c Config) withFallback(fb Config) Config {
	if c.ValueParser == nil {
		c.ValueParser = fb.ValueParser
	}
	if c.ResultFormatter == nil {
		c.ResultFormatter = fb.ResultFormatter
	}
	return c
}

func builtinConfig() Config {
	return Config{
		ValueParser:     ParseNumber,
		ResultFormatter: FormatNumber,
	}
}

var (
	defaultsMu sync.RWMutex
	defaults   = builtinConfig()
)

// Defaults returns the current library-wide defaults.
func Defaults() Config {
	defaultsMu.RLock()
	defer defaultsMu.RUnlock()
	return defaults
}

// SetDefaults replaces the library-wide defaults used by engines created
// afterwards. Unset hooks in c keep their current default.
func SetDefaults(c Config) {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = c.withFallback(defaults)
}

// ResetDefaults restores the built-in defaults.
func ResetDefaults() {
	defaultsMu.Lock()
	defer defaultsMu.Unlock()
	defaults = builtinConfig()
}

// ErrNotANumber is returned by the built-in parsers for text that does not
// denote a finite number.
var ErrNotANumber = errors.New("not a finite number")

// ParseNumber is the default value parser. Surrounding whitespace is ignored
// and an empty value counts as 0, so blank inputs do not break a sum.
func ParseNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	return v, nil
}

// ParseSpanishNumber parses numbers written with "." as the thousands
// separator and "," as the decimal mark, as in "1.234,5".
func ParseSpanishNumber(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}
	integer := strings.ReplaceAll(parts[0], ".", "")
	decimal := "0"
	if len(parts) == 2 && parts[1] != "" {
		decimal = parts[1]
	}
	return ParseNumber(integer + "." + decimal)
}

// FormatNumber is the default result formatter: the shortest decimal text
// that round-trips to v, without an exponent.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FixedFormatter returns a formatter that always prints digits decimals.
func FixedFormatter(digits int) ResultFormatter {
	return func(v float64) string {
		return strconv.FormatFloat(v, 'f', digits, 64)
	}
}

// ParserByName resolves a value parser by name: "number" (or "") for
// ParseNumber, "es" for ParseSpanishNumber.
func ParserByName(name string) (ValueParser, error) {
	switch name {
	case "", "number":
		return ParseNumber, nil
	case "es":
		return ParseSpanishNumber, nil
	default:
		return nil, fmt.Errorf("unknown value parser %q", name)
	}
}

// maxFixedDigits bounds "fixed:N" to the precision a float64 can show.
const maxFixedDigits = 20

// FormatterByName resolves a result formatter by name: "plain" (or "") for
// FormatNumber, "fixed:N" for FixedFormatter(N).
func FormatterByName(name string) (ResultFormatter, error) {
	switch {
	case name == "" || name == "plain":
		return FormatNumber, nil
	case strings.HasPrefix(name, "fixed:"):
		n, err := strconv.Atoi(strings.TrimPrefix(name, "fixed:"))
		if err != nil || n < 0 || n > maxFixedDigits {
			return nil, fmt.Errorf("invalid formatter %q: want fixed:N with 0 <= N <= %d", name, maxFixedDigits)
		}
		return FixedFormatter(n), nil
	default:
		return nil, fmt.Errorf("unknown result formatter %q", name)
	}
}
