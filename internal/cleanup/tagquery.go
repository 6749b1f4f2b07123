package cleanup

import (
	"context"
	"log/slog"
	"slices"
)

// DeleteByQueries removes every note matching any configured predicate in a
// single batch and returns the removed ids, ascending.
func (c *Cleaner) DeleteByQueries(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deleteByQueries(ctx, c.diag)
}

func (c *Cleaner) deleteByQueries(ctx context.Context, diag *slog.Logger) ([]int64, error) {
	union := make(map[int64]struct{})
	for _, q := range c.opts.Queries {
		ids, err := c.store.FindNotes(ctx, q)
		if err != nil {
			return nil, err
		}
		diag.Debug("tag query matched", slog.String("query", q), slog.Int("count", len(ids)))
		for _, id := range ids {
			union[id] = struct{}{}
		}
	}
	if len(union) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(union))
	for id := range union {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	if err := c.store.RemoveNotes(ctx, ids); err != nil {
		return nil, err
	}
	diag.Debug("tag query notes deleted", slog.Any("nids", ids))
	return ids, nil
}
