package exportdto

// BatchJob is one finished job of a batch as reported over the API.
type BatchJob struct {
	Index     int    `json:"index"`
	File      string `json:"file"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
	Requested int    `json:"quality_requested,omitempty"`
	Effective int    `json:"quality_effective,omitempty"`
	Bytes     int    `json:"bytes,omitempty"`
}

// BatchStatus is the polled view of a batch session.
type BatchStatus struct {
	ID         string     `json:"id"`
	State      string     `json:"state"`
	Total      int        `json:"total"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
	Progress   float64    `json:"progress"`
	CurrentJob int        `json:"current_job"`
	NotStarted []int      `json:"not_started,omitempty"`
	Finished   bool       `json:"finished"`
	Jobs       []BatchJob `json:"jobs,omitempty"`
	UpdatedAt  string     `json:"updated_at"`
}
