package worker

// Entry is the outcome of one file in a batch. Exactly one of Text and Err
// is meaningful.
type Entry struct {
	Index int // 0-based position in the batch
	Total int // batch size
	Path  string
	Text  string
	Err   error
}

// Failed reports whether the file could not be transcribed.
func (e Entry) Failed() bool { return e.Err != nil }

// Progress is the number of files finished out of the batch size.
type Progress struct {
	Completed int
	Total     int
}

// Fraction returns Completed/Total in [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}

// Update pairs a finished entry with the progress it produced.
type Update struct {
	Entry    Entry
	Progress Progress
}
