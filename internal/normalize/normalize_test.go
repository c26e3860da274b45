package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"LeBron James", "lebron james"},
		{"Jaren Jackson Jr.", "jaren jackson"},
		{"Gary Payton II", "gary payton"},
		{"D'Angelo Russell", "dangelo russell"},
		{"Luka Dončić", "luka doncic"},
		{"Nikola Jokić", "nikola jokic"},
		{"  Shai   Gilgeous-Alexander ", "shai gilgeous alexander"},
		{"O'Brien", "obrien"},
		{"Jr. O'Brien", "obrien"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Name(tt.in), "Name(%q)", tt.in)
	}
}

func TestSameName(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"LeBron James", "lebron james", true},
		{"Jaren Jackson Jr.", "Jaren Jackson", true},
		{"Luka Dončić", "Luka Doncic", true},
		{"J. Tatum", "Jayson Tatum", true},
		{"J. Jackson Jr.", "Jaren Jackson Jr.", true},
		{"Jayson Tatum", "Jaylen Brown", false},
		// distinct spelled-out first names never match on initial alone
		{"Jayson Tatum", "Jabari Tatum", false},
		{"Keegan Murray", "Kris Murray", false},
		{"Jr. O'Brien", "obrien", true}, // last-name-only side matches
		{"Tatum", "Jayson Tatum", true},
		{"", "Jayson Tatum", false},
		{"", "", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SameName(tt.a, tt.b), "SameName(%q, %q)", tt.a, tt.b)
		// matching must be symmetric
		assert.Equal(t, tt.want, SameName(tt.b, tt.a), "SameName(%q, %q)", tt.b, tt.a)
	}
}

func TestTeamCode(t *testing.T) {
	assert.Equal(t, "BOS", TeamCode("Boston Celtics"))
	assert.Equal(t, "BOS", TeamCode("celtics"))
	assert.Equal(t, "BOS", TeamCode("BOS"))
	assert.Equal(t, "GSW", TeamCode("Golden State Warriors"))
	assert.Equal(t, "LAL", TeamCode("LA Lakers"))
	// unknown teams pass through upper-cased
	assert.Equal(t, "XYZ", TeamCode("xyz"))
}

func TestSameTeam(t *testing.T) {
	assert.True(t, SameTeam("Boston Celtics", "BOS"))
	assert.True(t, SameTeam("warriors", "Golden State Warriors"))
	assert.False(t, SameTeam("BOS", "NYK"))
	assert.False(t, SameTeam("", "BOS"))
}

func TestSameDay(t *testing.T) {
	eastern, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	// a late tip crosses midnight UTC but stays on the same Eastern day
	a := time.Date(2026, 3, 1, 20, 0, 0, 0, eastern) // Mar 2 01:00 UTC
	b := time.Date(2026, 3, 1, 18, 0, 0, 0, eastern) // Mar 1 23:00 UTC
	assert.True(t, SameDay(a, b, eastern))
	assert.False(t, SameDay(a, b.Add(24*time.Hour), eastern))

	// the same instants land on different days in UTC
	assert.False(t, SameDay(a, b, time.UTC))
}
