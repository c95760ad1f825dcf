package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"12.2", 12.2},
		{"  5.1 ", 5.1},
		{"", 0},
		{"   ", 0},
		{"-3", -3},
		{"1e3", 1000},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseNumber(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"abc", "1,5", "NaN", "Inf", "-infinity", "12px"} {
		t.Run("rejects "+bad, func(t *testing.T) {
			_, err := ParseNumber(bad)
			assert.ErrorIs(t, err, ErrNotANumber)
		})
	}
}

func TestParseSpanishNumber(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1.234,5", 1234.5},
		{"12,2", 12.2},
		{"7", 7},
		{"1.000", 1000},
		{"-3,25", -3.25},
		{"", 0},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseSpanishNumber(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSpanishNumber("1,2,3")
	assert.ErrorIs(t, err, ErrNotANumber)
	_, err = ParseSpanishNumber("abc")
	assert.ErrorIs(t, err, ErrNotANumber)
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "7.1", FormatNumber(7.1))
	assert.Equal(t, "1000000", FormatNumber(1e6))
	assert.Equal(t, "-0.5", FormatNumber(-0.5))
	assert.Equal(t, "7.10", FixedFormatter(2)(7.1))
	assert.Equal(t, "8", FixedFormatter(0)(7.5))
}

func TestByName(t *testing.T) {
	p, err := ParserByName("es")
	require.NoError(t, err)
	v, err := p("2,5")
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	_, err = ParserByName("roman")
	assert.Error(t, err)

	f, err := FormatterByName("fixed:3")
	require.NoError(t, err)
	assert.Equal(t, "1.500", f(1.5))

	f, err = FormatterByName("")
	require.NoError(t, err)
	assert.Equal(t, "1.5", f(1.5))

	for _, bad := range []string{"fixed:", "fixed:-1", "fixed:99", "scientific"} {
		_, err := FormatterByName(bad)
		assert.Error(t, err, bad)
	}
}

func TestDefaults(t *testing.T) {
	t.Cleanup(ResetDefaults)

	SetDefaults(Config{ValueParser: ParseSpanishNumber})
	d := Defaults()
	v, err := d.ValueParser("1,5")
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
	assert.Equal(t, "1.5", d.ResultFormatter(1.5), "unset hooks are kept")

	ResetDefaults()
	_, err = Defaults().ValueParser("1,5")
	assert.Error(t, err)
}
