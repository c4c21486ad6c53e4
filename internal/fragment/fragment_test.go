package fragment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name       string
		start, end int64
		tier       string
		want       string
	}{
		{"range with tier", 960, 1960, "Speaker1", "t=0.960/1.960;tier=Speaker1"},
		{"point", 960, 960, "", "t=0.960"},
		{"unset end", 1500, -1, "", "t=1.500"},
		{"unset start", -1, -1, "Speaker1", "tier=Speaker1"},
		{"nothing", -1, -1, "", ""},
		{"tier with space", 0, 10, "Speaker 1", "t=0.000/0.010;tier=Speaker%201"},
		{"long time", 3723004, 3723005, "", "t=3723.004/3723.005"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Encode(tt.start, tt.end, tt.tier))
		})
	}
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		frag string
		want Descriptor
	}{
		{"range with tier", "t=0.960/1.960;tier=Speaker1", Descriptor{960, 1960, "Speaker1"}},
		{"missing end", "t=2.5", Descriptor{2500, 2500, ""}},
		{"escaped tier", "t=0.000/0.010;tier=Speaker%201", Descriptor{0, 10, "Speaker 1"}},
		{"tier only", "tier=A%2FB", Descriptor{-1, -1, "A/B"}},
		{"unknown segment", "t=1.000;anno=a12;tier=x", Descriptor{1000, 1000, "x"}},
		{"empty", "", Descriptor{-1, -1, ""}},
		{"colon form", "t=1:00.250", Descriptor{60250, 60250, ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.frag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	for _, frag := range []string{"t=abc", "t=1.000/x", "tier=%zz", "t=1.0a0"} {
		_, err := Decode(frag)
		assert.ErrorIs(t, err, ErrInvalidFragment, frag)
	}
}

func TestRoundTrip(t *testing.T) {
	cases := []Descriptor{
		{0, 0, ""},
		{960, 1960, "Speaker1"},
		{1, 999999, "tier with spaces & symbols;=/"},
		{42, 42, "ünïcødé"},
	}
	for _, c := range cases {
		got, err := Decode(Encode(c.Start, c.End, c.Tier))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestEscapeForCache(t *testing.T) {
	assert.Equal(t, "plain", EscapeForCache("plain"))

	once := Escape("t=0.960/1.960")
	assert.Equal(t, "t%3D0.960%2F1.960", once)
	assert.Equal(t, Escape(Escape(once)), EscapeForCache("t=0.960/1.960"))
	assert.Equal(t, "t%25253D0.960%25252F1.960", EscapeForCache("t=0.960/1.960"))
}

func TestSplitURI(t *testing.T) {
	base, frag, err := SplitURI("urn:nl-mpi-tools-elan-eaf:59d08e6a#t=0.960/1.960")
	require.NoError(t, err)
	assert.Equal(t, "urn:nl-mpi-tools-elan-eaf:59d08e6a", base)
	assert.Equal(t, "t=0.960/1.960", frag)

	base, frag, err = SplitURI("urn:unknown")
	require.NoError(t, err)
	assert.Equal(t, "urn:unknown", base)
	assert.Empty(t, frag)

	_, _, err = SplitURI("%zz#t=1")
	assert.ErrorIs(t, err, ErrInvalidURI)

	_, _, err = SplitURI("#t=1")
	assert.ErrorIs(t, err, ErrInvalidURI)
}

func TestFormatParseTime(t *testing.T) {
	assert.Equal(t, "0.960", FormatTime(960))
	assert.Equal(t, "61.000", FormatTime(61000))
	assert.Equal(t, "-0.001", FormatTime(-1))

	ms, err := ParseTime("1.96")
	require.NoError(t, err)
	assert.Equal(t, int64(1960), ms)

	ms, err = ParseTime("1:00:02.5009")
	require.NoError(t, err)
	assert.Equal(t, int64(3602500), ms)
}
