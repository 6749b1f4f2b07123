package cleanup

import (
	"context"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"
)

// NameDetector reports whether term, as used in text, looks like a proper name.
type NameDetector func(text, term string) bool

// MidSentenceCapitalized reports whether term with its first letter
// upper-cased occurs in text anywhere but at the very start. In languages
// that write common nouns in lower case this marks a likely proper name.
func MidSentenceCapitalized(text, term string) bool {
	if term == "" {
		return false
	}
	r, size := utf8.DecodeRuneInString(term)
	capitalized := string(unicode.ToUpper(r)) + term[size:]

	idx := strings.Index(text, capitalized)
	switch {
	case idx < 0:
		return false
	case idx > 0:
		return true
	}
	// Only a leading match so far; look for a later one.
	_, first := utf8.DecodeRuneInString(text)
	return strings.Contains(text[first:], capitalized)
}

// BuryNameMorphs tags candidate notes whose morpheme looks like a name as
// already known, then buries all of them. It returns the flagged ids. Notes
// that already carry the known tag are buried without being flushed.
func (c *Cleaner) BuryNameMorphs(ctx context.Context) ([]int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buryNameMorphs(ctx, c.diag)
}

func (c *Cleaner) buryNameMorphs(ctx context.Context, diag *slog.Logger) ([]int64, error) {
	cands, err := c.candidates(ctx)
	if err != nil {
		return nil, err
	}

	var (
		flagged []int64
		morphs  []string
	)
	for _, id := range cands {
		n, err := c.store.GetNote(ctx, id)
		if err != nil {
			return nil, err
		}
		morph, err := n.Field(c.opts.TargetField)
		if err != nil {
			return nil, err
		}
		if !c.detect(n.FieldOr(c.opts.FrontField, ""), morph) {
			continue
		}
		if !n.HasTag(c.opts.KnownTag) {
			n.AddTag(c.opts.KnownTag)
			if err := c.store.FlushNote(ctx, n); err != nil {
				return nil, err
			}
		}
		flagged = append(flagged, id)
		morphs = append(morphs, morph)
	}
	if len(flagged) == 0 {
		return nil, nil
	}

	for i, id := range flagged {
		diag.Debug("name morph", slog.Int64("nid", id), slog.String("morph", morphs[i]))
	}
	if err := c.store.BuryNotes(ctx, flagged); err != nil {
		return nil, err
	}
	c.logger.Info("name morphs buried", slog.Int("count", len(flagged)))
	return flagged, nil
}
