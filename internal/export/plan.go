package export

import (
	"fmt"
	"strings"
)

// DefaultBaseName names exported files when the caller gives no name.
const DefaultBaseName = "chess-board"

// Job is one (position, format) pair of a batch.
type Job struct {
	Index    int
	Position int
	FEN      string
	Format   Format
	Name     string
}

// PlanJobs expands positions × formats in position-major order. With more than one
// position every name carries a 1-based position suffix so no two files collide.
func PlanJobs(positions []string, formats []Format, base string) []Job {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseName
	}
	var uniq []Format
	seen := make(map[Format]bool)
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			uniq = append(uniq, f)
		}
	}
	jobs := make([]Job, 0, len(positions)*len(uniq))
	for i, pos := range positions {
		name := base
		if len(positions) > 1 {
			name = fmt.Sprintf("%s-%d", base, i+1)
		}
		for _, f := range uniq {
			jobs = append(jobs, Job{
				Index:    len(jobs),
				Position: i,
				FEN:      pos,
				Format:   f,
				Name:     name,
			})
		}
	}
	return jobs
}
