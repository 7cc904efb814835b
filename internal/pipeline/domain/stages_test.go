package domain

import (
	"errors"
	"testing"
)

func TestNewStageSet(t *testing.T) {
	tests := []struct {
		name    string
		stages  []string
		initial string
		wantErr bool
	}{
		{"valid", []string{"New", "Contacted", "Won"}, "New", false},
		{"initial defaults to first", []string{"New", "Won"}, "", false},
		{"initial mid-list", []string{"New", "Contacted", "Won"}, "Contacted", false},
		{"empty list", nil, "", true},
		{"blank name", []string{"New", "  "}, "New", true},
		{"duplicate", []string{"New", "New"}, "New", true},
		{"initial outside set", []string{"New", "Won"}, "Lost", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			set, err := NewStageSet(tc.stages, tc.initial)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidShape) {
					t.Errorf("error = %v, want ErrInvalidShape", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if set.Len() != len(tc.stages) {
				t.Errorf("Len() = %d, want %d", set.Len(), len(tc.stages))
			}
			wantInitial := tc.initial
			if wantInitial == "" {
				wantInitial = tc.stages[0]
			}
			if set.Initial() != wantInitial {
				t.Errorf("Initial() = %q, want %q", set.Initial(), wantInitial)
			}
			for _, name := range tc.stages {
				if !set.Contains(name) {
					t.Errorf("Contains(%q) = false, want true", name)
				}
			}
			if set.Contains("Nonexistent") {
				t.Error("Contains(Nonexistent) = true, want false")
			}
		})
	}
}

func TestStageSetNamesPreservesOrderAndIsCopy(t *testing.T) {
	set, err := NewStageSet([]string{"New", "Contacted", "Won"}, "New")
	if err != nil {
		t.Fatal(err)
	}

	names := set.Names()
	names[0] = "Mutated"

	again := set.Names()
	if again[0] != "New" || again[1] != "Contacted" || again[2] != "Won" {
		t.Errorf("Names() = %v, internal order was mutated", again)
	}
}
