package monitoring

import (
	"sync"
	"time"

	"github.com/rs/xid"
)

// A ProgressBar tracks how many trace records have been replayed.
type ProgressBar struct {
	sync.Mutex
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	// Total is 0 when the length of the trace is not known in advance.
	Total    uint64 `json:"total"`
	Finished uint64 `json:"finished"`
	Done     bool   `json:"done"`
}

// NewProgressBar creates a progress bar that starts now.
func NewProgressBar(name string, total uint64) *ProgressBar {
	return &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

// MarkDone records that no more elements will be finished.
func (b *ProgressBar) MarkDone() {
	b.Lock()
	defer b.Unlock()

	b.Done = true
}

type progressRsp struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Total     uint64    `json:"total"`
	Finished  uint64    `json:"finished"`
	Done      bool      `json:"done"`
}

func (b *ProgressBar) snapshot() progressRsp {
	b.Lock()
	defer b.Unlock()

	return progressRsp{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
		Done:      b.Done,
	}
}
