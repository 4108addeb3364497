package migrate

import (
	"context"
	"fmt"

	"github.com/msomdec/project-planner/internal/domain"
)

// CollectionStatus is the outcome of probing one collection.
type CollectionStatus struct {
	Name  string
	Count int
	Err   error
}

// Check pings store and verifies that each collection can be read. The
// returned error is only set when the store is unreachable; per-collection
// failures are reported in the statuses.
func Check(ctx context.Context, store domain.Store) ([]CollectionStatus, error) {
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", store.Kind(), err)
	}

	var statuses []CollectionStatus

	users, err := store.Users().List(ctx)
	statuses = append(statuses, CollectionStatus{Name: "users", Count: len(users), Err: err})

	cats, err := store.Categories().List(ctx)
	statuses = append(statuses, CollectionStatus{Name: "categories", Count: len(cats), Err: err})

	projects, err := store.Projects().List(ctx)
	statuses = append(statuses, CollectionStatus{Name: "projects", Count: len(projects), Err: err})

	tasks := CollectionStatus{Name: "tasks"}
	for _, p := range projects {
		list, err := store.Tasks().ListByProject(ctx, p.ID)
		if err != nil {
			tasks.Err = err
			break
		}
		tasks.Count += len(list)
	}
	statuses = append(statuses, tasks)

	return statuses, nil
}
