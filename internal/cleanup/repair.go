package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/starford/morphclean/internal/query"
)

const (
	soundPrefix = "[sound:"
	soundSuffix = "]"
)

// UnwrapSound returns the filename inside a "[sound:<filename>]" reference.
// ok is false when s does not have that shape.
func UnwrapSound(s string) (name string, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, soundPrefix) || !strings.HasSuffix(s, soundSuffix) {
		return "", false
	}
	name = s[len(soundPrefix) : len(s)-len(soundSuffix)]
	if name == "" {
		return "", false
	}
	return name, true
}

// RepairMediaFilenames copies the bare filename of each wrapped sound field
// into its destination field on movies2anki notes. Notes are flushed one at a
// time and only when a destination changed. Malformed or missing source
// fields are skipped with a warning.
func (c *Cleaner) RepairMediaFilenames(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.repairMediaFilenames(ctx, c.diag)
}

func (c *Cleaner) repairMediaFilenames(ctx context.Context, diag *slog.Logger) ([]int64, error) {
	search := query.And(fmt.Sprintf("mid:%d", c.opts.MediaNoteTypeID), tagTerm(c.opts.MediaTag))
	ids, err := c.store.FindNotes(ctx, search)
	if err != nil {
		return nil, err
	}

	var repaired []int64
	for _, id := range ids {
		n, err := c.store.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		changed := false
		for _, pair := range c.opts.MediaFields {
			src, err := n.Field(pair.Source)
			if err != nil {
				c.logger.Warn("media repair: source field missing",
					slog.Int64("nid", id), slog.String("field", pair.Source))
				continue
			}
			name, ok := UnwrapSound(src)
			if !ok {
				c.logger.Warn("media repair: malformed sound reference",
					slog.Int64("nid", id), slog.String("field", pair.Source), slog.String("value", src))
				continue
			}
			cur, err := n.Field(pair.Dest)
			if err != nil {
				c.logger.Warn("media repair: destination field missing",
					slog.Int64("nid", id), slog.String("field", pair.Dest))
				continue
			}
			if cur == name {
				continue
			}
			_ = n.SetField(pair.Dest, name)
			changed = true
			c.checkMediaFile(id, name)
		}
		if !changed {
			continue
		}
		if err := c.store.FlushNote(ctx, n); err != nil {
			return nil, err
		}
		diag.Debug("media filenames repaired", slog.Int64("nid", id))
		repaired = append(repaired, id)
	}
	return repaired, nil
}

func (c *Cleaner) checkMediaFile(nid int64, name string) {
	if c.media == nil {
		return
	}
	ok, err := c.media.Exists(name)
	switch {
	case err != nil:
		c.logger.Warn("media repair: cannot check file",
			slog.Int64("nid", nid), slog.String("file", name), slog.String("error", err.Error()))
	case !ok:
		c.logger.Warn("media repair: file not in media directory",
			slog.Int64("nid", nid), slog.String("file", name))
	}
}

func tagTerm(tag string) string {
	if tag == "" {
		return ""
	}
	return `"tag:` + tag + `"`
}
