package moviedata

import (
	"testing"

	"github.com/mazen160/go-random"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{raw: "  Gladiator II\n", expected: "Gladiator II"},
		{raw: "Dune:\nPart Two", expected: "Dune:Part Two"},
		{raw: "1. The Substance", expected: "1. The Substance"},
		{raw: "\r\n\t ", expected: ""},
		{raw: "", expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeTitle(test.raw), "raw: %q", test.raw)
	}
}

func TestNormalizeRating(t *testing.T) {
	testCases := []struct {
		raw      string
		expected float64
		ok       bool
	}{
		{raw: "8.5", expected: 8.5, ok: true},
		{raw: " 7 ", expected: 7, ok: true},
		// out-of-range values are not clamped
		{raw: "11.3", expected: 11.3, ok: true},
		{raw: "N/A", ok: false},
		{raw: "", ok: false},
		{raw: "nan", ok: false},
	}
	for _, test := range testCases {
		rating, ok := NormalizeRating(test.raw)
		require.Equal(t, test.ok, ok, "raw: %q", test.raw)
		if test.ok {
			require.Equal(t, test.expected, rating, "raw: %q", test.raw)
		}
	}
}

func TestNormalizeVotes(t *testing.T) {
	testCases := []struct {
		raw      string
		expected int64
		ok       bool
	}{
		{raw: "12k", expected: 12000, ok: true},
		{raw: "12K", expected: 12000, ok: true},
		{raw: "1.5k", expected: 1500, ok: true},
		{raw: "(1,234)", expected: 1234, ok: true},
		{raw: "128,000", expected: 128000, ok: true},
		{raw: "2.1M", expected: 2100000, ok: true},
		{raw: " 821 ", expected: 821, ok: true},
		{raw: "(48k)", expected: 48000, ok: true},
		{raw: "12k votes", ok: false},
		{raw: "lots", ok: false},
		{raw: "", ok: false},
		{raw: "none", ok: false},
		// "nank" and "infk" hit the scale branch where ParseFloat
		// happily yields NaN/Inf, counts must stay finite
		{raw: "nank", ok: false},
		{raw: "infk", ok: false},
		{raw: "NaNm", ok: false},
		{raw: "-12k", ok: false},
		{raw: "-42", ok: false},
	}
	for _, test := range testCases {
		votes, ok := NormalizeVotes(test.raw)
		require.Equal(t, test.ok, ok, "raw: %q", test.raw)
		if test.ok {
			require.Equal(t, test.expected, votes, "raw: %q", test.raw)
		}
	}
}

func TestNormalizeDuration(t *testing.T) {
	testCases := []struct {
		raw      string
		expected int64
		ok       bool
	}{
		{raw: "2h 13m", expected: 133, ok: true},
		{raw: "95m", expected: 95, ok: true},
		{raw: "2h", expected: 120, ok: true},
		{raw: "2h30m", expected: 150, ok: true},
		// bare numbers are read as minutes
		{raw: "120", expected: 120, ok: true},
		{raw: "85 mins", expected: 85, ok: true},
		{raw: "not a duration", ok: false},
		// zero collapses to absent, a zero-length movie is
		// indistinguishable from a missing runtime
		{raw: "0h 0m", ok: false},
		{raw: "0", ok: false},
		{raw: "", ok: false},
		{raw: "nan", ok: false},
	}
	for _, test := range testCases {
		minutes, ok := NormalizeDuration(test.raw)
		require.Equal(t, test.ok, ok, "raw: %q", test.raw)
		if test.ok {
			require.Equal(t, test.expected, minutes, "raw: %q", test.raw)
		}
	}
}

func TestNormalizeGenre(t *testing.T) {
	testCases := []struct {
		raw      string
		expected string
	}{
		{raw: " aCtion ", expected: "Action"},
		{raw: "ACTION", expected: "Action"},
		// internal capitals are not preserved
		{raw: "sci-Fi", expected: "Sci-fi"},
		{raw: "drama", expected: "Drama"},
		{raw: "", expected: ""},
	}
	for _, test := range testCases {
		require.Equal(t, test.expected, NormalizeGenre(test.raw), "raw: %q", test.raw)
	}
}

func TestCleanTableDropsBadRows(t *testing.T) {
	raw := []RawRecord{
		{Title: "1. Alpha", Rating: "8.1", Votes: "12k", Duration: "2h 13m", Genre: "action"},
		{Title: "2. Beta", Rating: "not rated", Votes: "300", Duration: "95m", Genre: "drama"},
		{Title: "3. Gamma", Rating: "6.9", Votes: "(1,234)", Duration: "1h 45m", Genre: "HORROR"},
		{Title: "4. Delta", Rating: "7.7", Votes: "128,000", Duration: "2h", Genre: "sci-Fi"},
		{Title: "5. Epsilon", Rating: "5.5", Votes: "42", Duration: "89m", Genre: "comedy"},
	}

	records, report := CleanTable(raw)

	require.Len(t, records, 4)
	require.Equal(t, 5, report.Read)
	require.Equal(t, 4, report.Kept)
	require.Equal(t, 1, report.Dropped)
	require.Equal(t, 1, report.BadRating)
	require.Equal(t, 0, report.BadVotes)

	// relative order of the survivors is preserved
	require.Equal(t, "1. Alpha", records[0].Title)
	require.Equal(t, "3. Gamma", records[1].Title)
	require.Equal(t, "4. Delta", records[2].Title)
	require.Equal(t, "5. Epsilon", records[3].Title)

	require.Equal(t, Record{
		Title:           "1. Alpha",
		Rating:          8.1,
		Votes:           12000,
		DurationMinutes: 133,
		Genre:           "Action",
	}, records[0])
}

func TestNormalizeRecordIdempotent(t *testing.T) {
	cleaned := Record{
		Title:           "Gladiator II",
		Rating:          6.8,
		Votes:           215000,
		DurationMinutes: 148,
		Genre:           "Action",
	}

	again, ok := NormalizeRecord(cleaned.Raw())
	require.True(t, ok)
	require.Equal(t, cleaned, again)
}

// NormalizeRecord must be total: any garbage input maps to either a
// cleaned record or a drop, never a panic.
func TestNormalizeRecordNeverPanics(t *testing.T) {
	garbage := func() string {
		s, err := random.StringRange(0, 32)
		if err != nil {
			t.Fatal(err)
		}
		return s
	}

	for i := 0; i < 2000; i++ {
		raw := RawRecord{
			Title:    garbage(),
			Rating:   garbage(),
			Votes:    garbage(),
			Duration: garbage(),
			Genre:    garbage(),
		}

		record, ok := NormalizeRecord(raw)
		if !ok {
			continue
		}

		// survivors must be stable under re-cleaning
		again, ok := NormalizeRecord(record.Raw())
		require.True(t, ok, "raw: %+v", raw)
		require.Equal(t, record, again, "raw: %+v", raw)
	}
}
