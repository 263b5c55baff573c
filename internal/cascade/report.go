package cascade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yukikurage/soundshare-api/internal/models"
)

// Node identifies one entity in the ownership graph.
type Node struct {
	Kind models.Kind
	ID   uint64
}

func (n Node) String() string {
	return fmt.Sprintf("%s:%d", n.Kind, n.ID)
}

// Report summarises one cascade run: how many rows of each kind it
// soft-deleted. Rows that were already deleted are not counted.
type Report struct {
	RunID      uuid.UUID
	Root       Node
	Counts     map[models.Kind]int
	StartedAt  time.Time
	FinishedAt time.Time
}

func newReport(root Node, startedAt time.Time) *Report {
	return &Report{
		RunID:     uuid.New(),
		Root:      root,
		Counts:    make(map[models.Kind]int),
		StartedAt: startedAt,
	}
}

// Count returns the number of rows of kind k deleted by the run.
func (r *Report) Count(k models.Kind) int {
	return r.Counts[k]
}

// Total returns the number of rows deleted by the run.
func (r *Report) Total() int {
	total := 0
	for _, n := range r.Counts {
		total += n
	}
	return total
}

// Noop reports whether the run changed nothing.
func (r *Report) Noop() bool {
	return r.Total() == 0
}
