package export

import "github.com/park285/fenshot/internal/render"

// Outcome is the result of one finished job.
type Outcome struct {
	Index   int
	Name    string
	Format  Format
	Quality render.Quality
	Bytes   int
	Err     error
}

func (o Outcome) OK() bool { return o.Err == nil }

// Summary describes a finished or cancelled batch.
type Summary struct {
	SessionID  string
	Total      int
	Outcomes   []Outcome
	NotStarted []int
	Cancelled  bool
}

func (s Summary) Succeeded() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.OK() {
			n++
		}
	}
	return n
}

func (s Summary) Failed() int { return len(s.Outcomes) - s.Succeeded() }

// Completed lists the indexes of jobs that ran, whether or not they succeeded.
func (s Summary) Completed() []int {
	out := make([]int, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		out = append(out, o.Index)
	}
	return out
}

// Reduced lists the outcomes that were rendered below the requested quality.
func (s Summary) Reduced() []Outcome {
	var out []Outcome
	for _, o := range s.Outcomes {
		if o.OK() && o.Quality.Reduced {
			out = append(out, o)
		}
	}
	return out
}
