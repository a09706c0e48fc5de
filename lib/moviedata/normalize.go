// Package moviedata cleans scraped movie listing tables.
//
// Every normalizer in this package is total: any string input maps to
// either a value or "absent" (the comma-ok idiom), never to an error or
// a panic. Absent fields silently drop the whole row at table level.
package moviedata

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	hoursPattern   = regexp.MustCompile(`(\d+)h`)
	minutesPattern = regexp.MustCompile(`(\d+)m`)
	digitsPattern  = regexp.MustCompile(`\d+`)
)

var votesCleaner = strings.NewReplacer("(", "", ")", "", ",", "")

// IsMissing reports whether a raw cell holds no value at all.
// Scraped tables spell out missing cells as "nan"/"none" or leave them
// empty, all of which collapse to absent before field parsing.
func IsMissing(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "nan", "none":
		return true
	}
	return false
}

// NormalizeTitle removes embedded newlines and surrounding whitespace.
// It never fails, an empty title is still a title. Rank prefixes like
// "1. " are kept as-is, that is how the source lists its movies.
func NormalizeTitle(raw string) string {
	raw = strings.ReplaceAll(raw, "\n", "")
	raw = strings.ReplaceAll(raw, "\r", "")
	return strings.TrimSpace(raw)
}

// NormalizeRating parses a rating like "8.5". The nominal scale is
// [0,10] but out-of-range values pass through unvalidated, matching the
// source table.
func NormalizeRating(raw string) (float64, bool) {
	if IsMissing(raw) {
		return 0, false
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return rating, true
}

// NormalizeVotes parses a vote count. Accepted forms are plain digits,
// digits with thousands separators, parenthesized counts like "(1,234)"
// and scale-suffixed counts like "12k" or "1.2M".
func NormalizeVotes(raw string) (int64, bool) {
	if IsMissing(raw) {
		return 0, false
	}
	v := strings.ToLower(strings.TrimSpace(raw))
	v = votesCleaner.Replace(v)

	scale := int64(0)
	switch {
	case strings.Contains(v, "k"):
		scale = 1_000
		v = strings.Replace(v, "k", "", 1)
	case strings.Contains(v, "m"):
		scale = 1_000_000
		v = strings.Replace(v, "m", "", 1)
	}
	if scale != 0 {
		// ParseFloat also accepts "nan" and "inf", whose int64
		// conversion is undefined. a count is finite and non-negative.
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return 0, false
		}
		return int64(f * float64(scale)), true
	}

	votes, err := strconv.ParseInt(v, 10, 64)
	if err != nil || votes < 0 {
		return 0, false
	}
	return votes, true
}

// NormalizeDuration extracts a runtime in minutes from free text like
// "2h 13m" or "95m". The hour and minute components are searched for
// independently, either may be missing. A bare number with no unit is
// read as minutes. A total of zero is absent: the source gives no way
// to tell a zero-length movie apart from a row with no duration data.
func NormalizeDuration(raw string) (int64, bool) {
	if IsMissing(raw) {
		return 0, false
	}

	var total int64
	if m := hoursPattern.FindStringSubmatch(raw); m != nil {
		hours, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, false
		}
		total += hours * 60
	}
	if m := minutesPattern.FindStringSubmatch(raw); m != nil {
		minutes, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, false
		}
		total += minutes
	}
	if total == 0 {
		if m := digitsPattern.FindString(raw); m != "" {
			minutes, err := strconv.ParseInt(m, 10, 64)
			if err != nil {
				return 0, false
			}
			total = minutes
		}
	}

	if total == 0 {
		return 0, false
	}
	return total, true
}

// NormalizeGenre trims and capitalizes a genre: first rune upper-cased,
// everything after it lower-cased. Internal capitals are not preserved,
// "sci-Fi" comes out as "Sci-fi".
func NormalizeGenre(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	runes := []rune(strings.ToLower(raw))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// NormalizeRecord cleans one row. ok is false if rating, votes,
// duration or genre came out absent, in which case the row should be
// dropped. The title cannot be absent, only empty.
func NormalizeRecord(raw RawRecord) (Record, bool) {
	record, report := normalizeFields(raw)
	return record, report.Dropped == 0
}

func normalizeFields(raw RawRecord) (Record, Report) {
	var report Report
	var record Record

	record.Title = NormalizeTitle(raw.Title)

	var ok bool
	record.Rating, ok = NormalizeRating(raw.Rating)
	if !ok {
		report.BadRating++
	}
	record.Votes, ok = NormalizeVotes(raw.Votes)
	if !ok {
		report.BadVotes++
	}
	record.DurationMinutes, ok = NormalizeDuration(raw.Duration)
	if !ok {
		report.BadDuration++
	}
	if IsMissing(raw.Genre) {
		report.BadGenre++
	} else {
		record.Genre = NormalizeGenre(raw.Genre)
	}

	if report.BadRating+report.BadVotes+report.BadDuration+report.BadGenre > 0 {
		report.Dropped = 1
		return Record{}, report
	}
	report.Kept = 1
	return record, report
}

// CleanTable runs a forward pass over a raw table, keeping survivors in
// their original relative order. Rows are independent of each other, no
// state crosses from one row to the next.
func CleanTable(raw []RawRecord) ([]Record, Report) {
	var report Report
	records := make([]Record, 0, len(raw))

	for _, row := range raw {
		record, rowReport := normalizeFields(row)

		report.Read++
		report.Kept += rowReport.Kept
		report.Dropped += rowReport.Dropped
		report.BadRating += rowReport.BadRating
		report.BadVotes += rowReport.BadVotes
		report.BadDuration += rowReport.BadDuration
		report.BadGenre += rowReport.BadGenre

		if rowReport.Dropped == 0 {
			records = append(records, record)
		}
	}

	return records, report
}

// Raw converts a cleaned record back into raw form, the way WriteTable
// serializes it. Cleaning is a projection: normalizing Raw() of a
// cleaned record yields the record unchanged.
func (r Record) Raw() RawRecord {
	return RawRecord{
		Title:    r.Title,
		Rating:   strconv.FormatFloat(r.Rating, 'f', -1, 64),
		Votes:    strconv.FormatInt(r.Votes, 10),
		Duration: strconv.FormatInt(r.DurationMinutes, 10),
		Genre:    r.Genre,
	}
}
