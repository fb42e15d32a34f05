package util_test

import (
	"testing"

	"github.com/droplab/tidal/util"
	"github.com/stretchr/testify/require"
)

func TestParseNanos(t *testing.T) {
	ts := util.ParseNanos(1_500_000_000)
	require.Equal(t, int64(1), ts.Unix())
	require.Equal(t, 500_000_000, ts.Nanosecond())
}

func TestOkeys(t *testing.T) {
	m := map[string]int{"b": 2, "a": 1, "c": 3}
	require.Equal(t, []string{"a", "b", "c"}, util.Okeys(m))
}

func TestHumanFrequency(t *testing.T) {
	cases := []struct {
		hz       float64
		expected string
	}{
		{1, "1 Hz"},
		{100, "100 Hz"},
		{1000, "1 kHz"},
		{2500, "2.5 kHz"},
		{1e6, "1 MHz"},
		{1e9, "1 GHz"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, util.HumanFrequency(c.hz))
	}
}

func TestWhen(t *testing.T) {
	require.Equal(t, "a", util.When(true, "a", "b"))
	require.Equal(t, "b", util.When(false, "a", "b"))
}
