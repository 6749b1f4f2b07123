// Package models defines the domain types for morphclean.
package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/starford/morphclean/internal/apperr"
)

// NoteType describes the ordered field layout shared by a family of notes.
type NoteType struct {
	ID     int64    `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Fields []string `json:"fields" yaml:"fields"`
}

// Note is a vocabulary record with tags and named fields. Changes are only
// persisted once the note is flushed back to the collection.
type Note struct {
	ID         int64             `json:"id"`
	NoteTypeID int64             `json:"mid"`
	Tags       []string          `json:"tags"`
	Fields     map[string]string `json:"fields"`
	Modified   time.Time         `json:"mod"`
}

// Field returns the text of the named field. A name that is not part of the
// note's type yields apperr.ErrFieldNotFound.
func (n *Note) Field(name string) (string, error) {
	v, ok := n.Fields[name]
	if !ok {
		return "", fmt.Errorf("note %d: %q: %w", n.ID, name, apperr.ErrFieldNotFound)
	}
	return v, nil
}

// FieldOr returns the named field, or fallback when the note has no such field.
func (n *Note) FieldOr(name, fallback string) string {
	if v, ok := n.Fields[name]; ok {
		return v
	}
	return fallback
}

// SetField writes the named field. Unknown names are rejected.
func (n *Note) SetField(name, value string) error {
	if _, ok := n.Fields[name]; !ok {
		return fmt.Errorf("note %d: %q: %w", n.ID, name, apperr.ErrFieldNotFound)
	}
	n.Fields[name] = value
	return nil
}

// HasTag reports whether the note carries tag, ignoring case.
func (n *Note) HasTag(tag string) bool {
	return slices.ContainsFunc(n.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// AddTag appends tag unless the note already carries it.
func (n *Note) AddTag(tag string) {
	if tag == "" || n.HasTag(tag) {
		return
	}
	n.Tags = append(n.Tags, tag)
}

// RemoveTag drops every case-insensitive match of tag.
func (n *Note) RemoveTag(tag string) {
	n.Tags = slices.DeleteFunc(n.Tags, func(t string) bool {
		return strings.EqualFold(t, tag)
	})
}

// CardType is the learning stage of a card.
type CardType int

const (
	CardTypeNew CardType = iota
	CardTypeLearning
	CardTypeReview
)

// CardQueue is the scheduling queue a card currently sits in.
type CardQueue int

const (
	QueueManuallyBuried CardQueue = -3
	QueueSiblingBuried  CardQueue = -2
	QueueSuspended      CardQueue = -1
	QueueNew            CardQueue = 0
	QueueLearning       CardQueue = 1
	QueueReview         CardQueue = 2
)

// Card is one schedulable unit derived from a note.
type Card struct {
	ID     int64     `json:"id"`
	NoteID int64     `json:"nid"`
	Ord    int       `json:"ord"`
	Type   CardType  `json:"type"`
	Queue  CardQueue `json:"queue"`
	Due    int64     `json:"due"`
}
