package moviedata

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReadTable(t *testing.T) {
	// header casing and column order come from whatever spreadsheet
	// or scraper produced the file, neither should matter
	input := strings.Join([]string{
		`Genre,TITLE,Duration,Votes,Rating`,
		`action,"1. Alpha","2h 13m","12k",8.1`,
		`drama,"2. Beta",95m,"(1,234)",7.2`,
	}, "\n")

	records, err := ReadTable(strings.NewReader(input))
	require.NoError(t, err)

	expected := []RawRecord{
		{Title: "1. Alpha", Rating: "8.1", Votes: "12k", Duration: "2h 13m", Genre: "action"},
		{Title: "2. Beta", Rating: "7.2", Votes: "(1,234)", Duration: "95m", Genre: "drama"},
	}
	if diff := cmp.Diff(expected, records); diff != "" {
		t.Fatalf("unexpected table (-want +got):\n%s", diff)
	}
}

func TestReadTableMissingColumn(t *testing.T) {
	input := "Title,Rating\nAlpha,8.1\n"

	records, err := ReadTable(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Alpha", records[0].Title)
	require.Equal(t, "", records[0].Votes)
}

func TestReadTableEmpty(t *testing.T) {
	records, err := ReadTable(strings.NewReader(""))
	require.NoError(t, err)
	require.Len(t, records, 0)
}

func TestWriteTableRoundTrip(t *testing.T) {
	cleaned := []Record{
		{Title: "1. Alpha", Rating: 8.1, Votes: 12000, DurationMinutes: 133, Genre: "Action"},
		{Title: "2. Beta", Rating: 7.2, Votes: 1234, DurationMinutes: 95, Genre: "Drama"},
	}

	var buf bytes.Buffer
	err := WriteTable(&buf, cleaned)
	require.NoError(t, err)

	raw, err := ReadTable(&buf)
	require.NoError(t, err)

	again, report := CleanTable(raw)
	require.Equal(t, 0, report.Dropped)
	require.Equal(t, cleaned, again)
}
