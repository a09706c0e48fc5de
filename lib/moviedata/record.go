package moviedata

// RawRecord is a single scraped movie row before any cleaning, every
// field exactly as it was pulled out of the page (or csv cell).
type RawRecord struct {
	Title    string
	Rating   string
	Votes    string
	Duration string
	Genre    string
}

// Record is a cleaned movie row. A Record only exists if every field
// parsed successfully, rows with any unparseable field are dropped
// wholesale by CleanTable.
type Record struct {
	Title           string  `json:"title"`
	Rating          float64 `json:"rating"`
	Votes           int64   `json:"votes"`
	DurationMinutes int64   `json:"duration_minutes"`
	Genre           string  `json:"genre"`
}

// Report describes what a cleaning pass did to a table. A single row
// may be counted under several field columns if more than one of its
// fields failed to parse.
type Report struct {
	Read    int
	Kept    int
	Dropped int

	BadRating   int
	BadVotes    int
	BadDuration int
	BadGenre    int
}
