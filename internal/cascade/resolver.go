package cascade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yukikurage/soundshare-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Observer is told about every finished cascade run.
type Observer interface {
	ObserveCascade(report *Report, err error)
}

// Resolver soft-deletes a root entity and everything it transitively owns,
// in a single transaction, holding the root's lock for the duration.
type Resolver struct {
	db         *gorm.DB
	graph      *Graph
	reconciler *Reconciler
	locker     Locker
	observer   Observer
	log        logrus.FieldLogger
	verify     bool
	now        func() time.Time
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithGraph replaces the default ownership graph.
func WithGraph(g *Graph) Option {
	return func(r *Resolver) { r.graph = g }
}

// WithLocker replaces the in-process root lock.
func WithLocker(l Locker) Option {
	return func(r *Resolver) { r.locker = l }
}

// WithObserver registers an observer for finished runs.
func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(r *Resolver) { r.log = log }
}

// WithVerify enables the post-cascade orphan check.
func WithVerify(verify bool) Option {
	return func(r *Resolver) { r.verify = verify }
}

// WithClock overrides the deletion timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// NewResolver creates a Resolver over db.
func NewResolver(db *gorm.DB, opts ...Option) *Resolver {
	r := &Resolver{
		db:         db,
		graph:      DefaultGraph(),
		reconciler: NewReconciler(),
		locker:     NewLocalLocker(),
		log:        logrus.StandardLogger(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Graph returns the ownership graph the resolver walks.
func (r *Resolver) Graph() *Graph {
	return r.graph
}

// CascadeUser soft-deletes the user and every entity it owns. Running it on
// an already deleted user only picks up live leftovers; a fully cascaded
// user yields an empty report.
func (r *Resolver) CascadeUser(ctx context.Context, userID uint64) (*Report, error) {
	return r.Cascade(ctx, Node{Kind: models.KindUser, ID: userID})
}

// Cascade soft-deletes root and its subtree in the ownership graph. It is
// also the path for removing a single entity such as one track or comment,
// since it applies the same reconciliation.
func (r *Resolver) Cascade(ctx context.Context, root Node) (*Report, error) {
	report := newReport(root, r.now())
	log := r.log.WithFields(logrus.Fields{
		"run_id": report.RunID.String(),
		"root":   root.String(),
	})

	unlock, err := r.locker.Lock(ctx, rootKey(root))
	if err != nil {
		r.finish(log, report, err)
		return nil, err
	}
	defer unlock()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.lockRoot(tx, root); err != nil {
			return err
		}
		if err := r.walk(tx, root, report); err != nil {
			return err
		}
		if r.verify {
			return r.verifyRoot(tx, root)
		}
		return nil
	})
	if err != nil {
		err = classify(err)
		r.finish(log, report, err)
		return nil, err
	}

	r.finish(log, report, nil)
	return report, nil
}

// lockRoot takes a row lock on the root, including deleted rows, and fails
// with ErrRootNotFound when there is no such row.
func (r *Resolver) lockRoot(tx *gorm.DB, root Node) error {
	var row struct {
		ID uint64
	}
	err := tx.Unscoped().
		Table(TableFor(root.Kind)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", root.ID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	return err
}

// walk visits the graph breadth first. Each node is marked once; children
// are discovered among live rows only, so finished subtrees are not
// re-entered on a repeated run.
func (r *Resolver) walk(tx *gorm.DB, root Node, report *Report) error {
	at := report.StartedAt
	visited := map[Node]struct{}{}
	queue := []Node{root}

	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if _, seen := visited[n]; seen {
			continue
		}
		visited[n] = struct{}{}

		for _, rel := range r.graph.Children(n.Kind) {
			ids, err := liveChildren(tx, rel, n.ID)
			if err != nil {
				return err
			}
			for _, id := range ids {
				child := Node{Kind: rel.Child, ID: id}
				if _, seen := visited[child]; !seen {
					queue = append(queue, child)
				}
			}
		}

		changed, err := markDeleted(tx, n, at)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		report.Counts[n.Kind]++
		if err := r.reconciler.Reconcile(tx, n, at); err != nil {
			return err
		}
	}

	return nil
}

func liveChildren(tx *gorm.DB, rel Relation, parentID uint64) ([]uint64, error) {
	q := tx.Table(TableFor(rel.Child)).
		Where(rel.ForeignKey+" = ?", parentID).
		Where("deleted_at IS NULL")
	if rel.TypeColumn != "" {
		q = q.Where(rel.TypeColumn+" = ?", rel.TypeValue)
	}

	var ids []uint64
	if err := q.Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", rel, err)
	}
	return ids, nil
}

// markDeleted sets the deletion marker on a live row and reports whether it
// did. A row that is already deleted is left untouched.
func markDeleted(tx *gorm.DB, n Node, at time.Time) (bool, error) {
	res := tx.Table(TableFor(n.Kind)).
		Where("id = ? AND deleted_at IS NULL", n.ID).
		UpdateColumn("deleted_at", at)
	if res.Error != nil {
		return false, fmt.Errorf("mark %s: %w", n, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// verifyRoot fails when a live row still references the root through any
// relation, cascading or not.
func (r *Resolver) verifyRoot(tx *gorm.DB, root Node) error {
	for _, rel := range r.graph.References(root.Kind) {
		q := tx.Table(TableFor(rel.Child)).
			Where(rel.ForeignKey+" = ?", root.ID).
			Where("deleted_at IS NULL")
		if rel.TypeColumn != "" {
			q = q.Where(rel.TypeColumn+" = ?", rel.TypeValue)
		}

		var live int64
		if err := q.Count(&live).Error; err != nil {
			return fmt.Errorf("verify %s: %w", rel, err)
		}
		if live > 0 {
			return fmt.Errorf("%w: %d live rows left by %s for %s", ErrInvariantViolation, live, rel, root)
		}
	}
	return nil
}

// classify maps a failed transaction onto the cascade error taxonomy.
func classify(err error) error {
	switch {
	case errors.Is(err, ErrRootNotFound),
		errors.Is(err, ErrInvariantViolation),
		errors.Is(err, ErrLockUnavailable),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
}

func (r *Resolver) finish(log logrus.FieldLogger, report *Report, err error) {
	report.FinishedAt = r.now()

	if err != nil {
		entry := log.WithError(err)
		if errors.Is(err, ErrInvariantViolation) {
			entry.Error("cascade aborted on invariant violation")
		} else {
			entry.Warn("cascade failed")
		}
	} else {
		fields := logrus.Fields{"deleted": report.Total()}
		for kind, n := range report.Counts {
			fields[string(kind)] = n
		}
		log.WithFields(fields).Info("cascade committed")
	}

	if r.observer != nil {
		r.observer.ObserveCascade(report, err)
	}
}
