// Package versions binds rounds to the scoring strategy variant they
// were first processed with.
//
// The registry is append-only and immutable once constructed: a round
// that appears under a version must always be re-scored with that
// version's variant, otherwise historical payouts stop being
// reproducible.
package versions

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/okian/charades/internal/domain/scoring"
)

// Entry records one scoring version and the rounds it applies to.
type Entry struct {
	VersionID             string
	AppliedToRounds       []string
	UseBaselineAdjustment bool
}

// Variant returns the strategy variant the entry prescribes.
func (e Entry) Variant() scoring.Variant {
	if e.UseBaselineAdjustment {
		return scoring.BaselineAdjusted
	}
	return scoring.RawSimilarity
}

// Registry resolves round IDs to scoring variants.
type Registry struct {
	entries []Entry
	byRound map[string]scoring.Variant
}

// New builds a registry from the given entries. Entries are kept in the
// order supplied; the first entry naming a round wins.
func New(entries ...Entry) *Registry {
	r := &Registry{
		entries: append([]Entry(nil), entries...),
		byRound: make(map[string]scoring.Variant),
	}
	for _, e := range r.entries {
		for _, roundID := range e.AppliedToRounds {
			if _, ok := r.byRound[roundID]; !ok {
				r.byRound[roundID] = e.Variant()
			}
		}
	}
	return r
}

// Resolve returns the variant bound to the round, or the current default
// (baseline-adjusted) when the round is not registered.
func (r *Registry) Resolve(roundID string) scoring.Variant {
	if v, ok := r.byRound[roundID]; ok {
		return v
	}
	return scoring.BaselineAdjusted
}

// Entries returns a copy of the registered entries.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// registryFile mirrors the persisted JSON layout:
//
//	{"versions": {"1.0": {"applied_to_rounds": [...], "parameters": {"use_baseline_adjustment": bool}}}}
type registryFile struct {
	Versions map[string]struct {
		AppliedToRounds []string `json:"applied_to_rounds"`
		Parameters      struct {
			UseBaselineAdjustment bool `json:"use_baseline_adjustment"`
		} `json:"parameters"`
	} `json:"versions"`
}

// Load reads a registry from its persisted JSON form. Version IDs are
// sorted so resolution is deterministic regardless of map ordering.
func Load(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRegistry, err)
	}
	var f registryFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadRegistry, err)
	}
	ids := make([]string, 0, len(f.Versions))
	for id := range f.Versions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		v := f.Versions[id]
		entries = append(entries, Entry{
			VersionID:             id,
			AppliedToRounds:       v.AppliedToRounds,
			UseBaselineAdjustment: v.Parameters.UseBaselineAdjustment,
		})
	}
	return New(entries...), nil
}
