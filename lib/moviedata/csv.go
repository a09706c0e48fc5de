package moviedata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// canonical output header, matches what the dashboard expects
var cleanHeader = []string{"Title", "Rating", "Votes", "Duration_Minutes", "Genre"}

func headerIndex(header []string) map[string]int {
	index := map[string]int{}
	for i, col := range header {
		col = strings.ToLower(strings.TrimSpace(col))
		col = strings.ReplaceAll(col, " ", "_")
		index[col] = i
	}
	return index
}

func cell(row []string, index map[string]int, names ...string) string {
	for _, name := range names {
		i, ok := index[name]
		if ok && i < len(row) {
			return row[i]
		}
	}
	return ""
}

// ReadTable reads a raw movie table from csv. Columns are matched by
// header name case-insensitively and may come in any order, a missing
// column just yields empty cells (which clean to absent downstream).
func ReadTable(r io.Reader) ([]RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	index := headerIndex(header)

	var records []RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		records = append(records, RawRecord{
			Title:    cell(row, index, "title"),
			Rating:   cell(row, index, "rating"),
			Votes:    cell(row, index, "votes", "voting_counts"),
			Duration: cell(row, index, "duration", "duration_minutes"),
			Genre:    cell(row, index, "genre"),
		})
	}
	return records, nil
}

// WriteTable writes a cleaned movie table as csv under the canonical
// header. Row order is preserved.
func WriteTable(w io.Writer, records []Record) error {
	writer := csv.NewWriter(w)

	err := writer.Write(cleanHeader)
	if err != nil {
		return err
	}
	for _, record := range records {
		raw := record.Raw()
		err := writer.Write([]string{
			raw.Title,
			raw.Rating,
			raw.Votes,
			raw.Duration,
			raw.Genre,
		})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteRawTable writes a scraped table without cleaning it, so a
// scrape can be inspected or re-cleaned later.
func WriteRawTable(w io.Writer, records []RawRecord) error {
	writer := csv.NewWriter(w)

	err := writer.Write([]string{"Title", "Rating", "Votes", "Duration", "Genre"})
	if err != nil {
		return err
	}
	for _, r := range records {
		err := writer.Write([]string{r.Title, r.Rating, r.Votes, r.Duration, r.Genre})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func ReadTableFile(path string) ([]RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f)
}

func WriteTableFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteTable(f, records)
}

func WriteRawTableFile(path string, records []RawRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteRawTable(f, records)
}
