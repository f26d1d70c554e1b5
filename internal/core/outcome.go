package core

// FileState is the terminal state of a single changed file within a run.
type FileState string

const (
	FileSkipped   FileState = "skipped"
	FileCommented FileState = "commented"
	FileFatal     FileState = "fatal"
	// FileAborted marks eligible files never reviewed because the run stopped.
	FileAborted FileState = "aborted"
)

// FileOutcome records what happened to one changed file.
type FileOutcome struct {
	Filename string
	State    FileState
	Reason   string
}

// RunSummary is the result of one pass over a pull request's changed files.
type RunSummary struct {
	Outcomes  []FileOutcome
	Commented int
	Skipped   int
	Aborted   int
}

// Add records an outcome and updates the counters.
func (s *RunSummary) Add(o FileOutcome) {
	s.Outcomes = append(s.Outcomes, o)
	switch o.State {
	case FileCommented:
		s.Commented++
	case FileSkipped:
		s.Skipped++
	case FileAborted:
		s.Aborted++
	}
}
