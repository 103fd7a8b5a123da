package batchstore

import (
	"context"
	"time"
)

// Snapshot is the last known state of a batch session, stored as JSON.
type Snapshot struct {
	ID         string      `json:"id"`
	State      string      `json:"state"`
	Total      int         `json:"total"`
	Succeeded  int         `json:"succeeded"`
	Failed     int         `json:"failed"`
	Fraction   float64     `json:"fraction"`
	CurrentJob int         `json:"current_job"`
	NotStarted []int       `json:"not_started,omitempty"`
	Jobs       []JobRecord `json:"jobs,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// JobRecord is one finished job inside a snapshot.
type JobRecord struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Format    string `json:"format"`
	Error     string `json:"error,omitempty"`
	Requested int    `json:"quality_requested,omitempty"`
	Effective int    `json:"quality_effective,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
}

func (j JobRecord) OK() bool { return j.Error == "" }

// Finished reports whether the session has stopped running.
func (s *Snapshot) Finished() bool {
	return s.State == "completed" || s.State == "cancelled"
}

// Store persists snapshots. Load returns nil, nil when the id is unknown or expired.
type Store interface {
	Save(ctx context.Context, s *Snapshot) error
	Load(ctx context.Context, id string) (*Snapshot, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]string, error)
}

const ttlSnapshot = 24 * time.Hour

func cloneSnapshot(s *Snapshot) *Snapshot {
	cp := *s
	cp.NotStarted = append([]int(nil), s.NotStarted...)
	cp.Jobs = append([]JobRecord(nil), s.Jobs...)
	return &cp
}
