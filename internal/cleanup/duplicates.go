package cleanup

import (
	"context"
	"log/slog"
)

// RemoveDuplicateMorphs keeps one candidate note per target morpheme and
// deletes the rest. The survivor of each group is the candidate with the
// earliest due rank.
func (c *Cleaner) RemoveDuplicateMorphs(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeDuplicateMorphs(ctx, c.diag)
}

func (c *Cleaner) removeDuplicateMorphs(ctx context.Context, diag *slog.Logger) ([]int64, error) {
	cands, err := c.candidates(ctx)
	if err != nil {
		return nil, err
	}

	type dup struct {
		nid, kept int64
		morph     string
	}
	kept := make(map[string]int64, len(cands))
	var dups []dup
	for _, id := range cands {
		n, err := c.store.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		morph, err := n.Field(c.opts.TargetField)
		if err != nil {
			return nil, err
		}
		if survivor, ok := kept[morph]; ok {
			dups = append(dups, dup{nid: id, kept: survivor, morph: morph})
			continue
		}
		kept[morph] = id
	}
	if len(dups) == 0 {
		return nil, nil
	}

	removed := make([]int64, len(dups))
	for i, d := range dups {
		removed[i] = d.nid
		diag.Debug("duplicate morph",
			slog.Int64("nid", d.nid),
			slog.String("morph", d.morph),
			slog.Int64("kept", d.kept))
	}
	if err := c.store.RemoveNotes(ctx, removed); err != nil {
		return nil, err
	}
	c.logger.Info("duplicate morphs deleted", slog.Int("count", len(removed)))
	return removed, nil
}
