package export

// Progress is one batch progress report.
type Progress struct {
	SessionID string
	// Fraction is (completed jobs + current job fraction) / total jobs.
	Fraction float64
	Job      int
	Total    int
	Format   Format
}

// Listener observes a batch session. Calls are made from the session's goroutine,
// never while the session lock is held.
type Listener interface {
	Progress(p Progress)
	StateChanged(sessionID string, state State)
	JobFinished(sessionID string, o Outcome)
	BatchFinished(s Summary)
}

// NopListener can be embedded to implement only part of Listener.
type NopListener struct{}

func (NopListener) Progress(Progress)           {}
func (NopListener) StateChanged(string, State)  {}
func (NopListener) JobFinished(string, Outcome) {}
func (NopListener) BatchFinished(Summary)       {}

// ProgressFunc adapts a plain progress callback.
type ProgressFunc func(Progress)

func (f ProgressFunc) Progress(p Progress)       { f(p) }
func (ProgressFunc) StateChanged(string, State)  {}
func (ProgressFunc) JobFinished(string, Outcome) {}
func (ProgressFunc) BatchFinished(Summary)       {}

type multiListener []Listener

// Listeners fans events out to every non-nil listener in order.
func Listeners(ls ...Listener) Listener {
	var out multiListener
	for _, l := range ls {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (m multiListener) Progress(p Progress) {
	for _, l := range m {
		l.Progress(p)
	}
}

func (m multiListener) StateChanged(id string, st State) {
	for _, l := range m {
		l.StateChanged(id, st)
	}
}

func (m multiListener) JobFinished(id string, o Outcome) {
	for _, l := range m {
		l.JobFinished(id, o)
	}
}

func (m multiListener) BatchFinished(s Summary) {
	for _, l := range m {
		l.BatchFinished(s)
	}
}
