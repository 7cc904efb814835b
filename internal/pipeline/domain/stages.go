package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidShape indicates the configured pipeline shape is unusable.
// This is fatal at construction time, never recoverable mid-operation.
var ErrInvalidShape = errors.New("invalid pipeline shape")

// StageSet is the ordered, immutable set of stage names defining a
// deployment's pipeline, plus the stage every new lead starts in.
type StageSet struct {
	names   []string
	order   map[string]int
	initial string
}

// NewStageSet validates and builds a stage set. The name list must be
// non-empty with no blanks or duplicates, and initial must be a member.
// An empty initial defaults to the first configured stage.
func NewStageSet(names []string, initial string) (*StageSet, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: no stages configured", ErrInvalidShape)
	}

	order := make(map[string]int, len(names))
	cleaned := make([]string, 0, len(names))
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			return nil, fmt.Errorf("%w: blank stage name", ErrInvalidShape)
		}
		if _, dup := order[name]; dup {
			return nil, fmt.Errorf("%w: duplicate stage %q", ErrInvalidShape, name)
		}
		order[name] = len(cleaned)
		cleaned = append(cleaned, name)
	}

	if initial == "" {
		initial = cleaned[0]
	}
	if _, ok := order[initial]; !ok {
		return nil, fmt.Errorf("%w: initial stage %q is not in the stage list", ErrInvalidShape, initial)
	}

	return &StageSet{names: cleaned, order: order, initial: initial}, nil
}

// Names returns the configured stage names in pipeline order.
func (s *StageSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Contains reports whether name is a configured stage.
func (s *StageSet) Contains(name string) bool {
	_, ok := s.order[name]
	return ok
}

// Initial returns the stage every new lead is placed into.
func (s *StageSet) Initial() string {
	return s.initial
}

// Len returns the number of configured stages.
func (s *StageSet) Len() int {
	return len(s.names)
}
