package civil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", d.String())

	for _, bad := range []string{"", "2026-3-2", "02.03.2026", "2026-03-02T00:00:00Z", "not-a-date"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestDateComparisons(t *testing.T) {
	a := MustParseDate("2026-03-02")
	b := MustParseDate("2026-03-13")

	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(MustParseDate("2026-03-02")))
	assert.True(t, Date{}.IsZero())
	assert.False(t, a.IsZero())
}

func TestDateAddDays(t *testing.T) {
	d := MustParseDate("2026-02-27")
	assert.Equal(t, "2026-03-01", d.AddDays(2).String()) // across month end
	assert.Equal(t, "2026-02-20", d.AddDays(-7).String())
}

func TestDateMonday(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-02", "2026-03-02"}, // Monday stays put
		{"2026-03-03", "2026-03-02"}, // Tuesday
		{"2026-03-05", "2026-03-02"}, // Thursday
		{"2026-03-07", "2026-03-02"}, // Saturday
		{"2026-03-08", "2026-03-02"}, // Sunday belongs to the week before
		{"2026-03-09", "2026-03-09"}, // next Monday
		{"2026-01-01", "2025-12-29"}, // across year boundary
	}
	for _, tt := range tests {
		got := MustParseDate(tt.in).Monday()
		assert.Equal(t, tt.want, got.String(), "Monday(%s)", tt.in)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	type doc struct {
		Day Date `json:"day"`
	}

	data, err := json.Marshal(doc{Day: MustParseDate("2026-03-02")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2026-03-02"}`, string(data))

	var out doc
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2026-03-02"}`), &out))
	assert.Equal(t, "2026-03-02", out.Day.String())

	// null and empty string mean "no date".
	out = doc{}
	require.NoError(t, json.Unmarshal([]byte(`{"day":null}`), &out))
	assert.True(t, out.Day.IsZero())
	require.NoError(t, json.Unmarshal([]byte(`{"day":""}`), &out))
	assert.True(t, out.Day.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"day":"03/02/2026"}`), &out))
}

func TestDateYAMLRoundTrip(t *testing.T) {
	type doc struct {
		Day Date `yaml:"day"`
	}

	data, err := yaml.Marshal(doc{Day: MustParseDate("2026-03-02")})
	require.NoError(t, err)
	assert.Contains(t, string(data), "2026-03-02")

	var out doc
	require.NoError(t, yaml.Unmarshal(data, &out))
	assert.Equal(t, "2026-03-02", out.Day.String())

	// Unquoted scalars parse the same way.
	out = doc{}
	require.NoError(t, yaml.Unmarshal([]byte("day: 2026-03-02\n"), &out))
	assert.Equal(t, "2026-03-02", out.Day.String())
}
