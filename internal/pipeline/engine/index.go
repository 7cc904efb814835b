package engine

import (
	"fmt"

	"github.com/google/uuid"

	"salesflow_backend/internal/pipeline/domain"
)

// stageIndex partitions lead identifiers into per-stage buckets. A bucket
// exists for every configured stage for the lifetime of the engine; buckets
// are only ever emptied, never deleted. Within a bucket, order is
// append-at-tail insertion order.
type stageIndex struct {
	stages  *domain.StageSet
	buckets map[string][]uuid.UUID
}

func newStageIndex(stages *domain.StageSet) *stageIndex {
	buckets := make(map[string][]uuid.UUID, stages.Len())
	for _, name := range stages.Names() {
		buckets[name] = []uuid.UUID{}
	}
	return &stageIndex{stages: stages, buckets: buckets}
}

func (x *stageIndex) appendTail(stage string, id uuid.UUID) {
	x.buckets[stage] = append(x.buckets[stage], id)
}

// remove takes id out of the named bucket, reporting whether it was present.
func (x *stageIndex) remove(stage string, id uuid.UUID) bool {
	bucket := x.buckets[stage]
	for i, member := range bucket {
		if member == id {
			x.buckets[stage] = append(bucket[:i], bucket[i+1:]...)
			return true
		}
	}
	return false
}

// removeEverywhere purges id from all buckets. Used by lead deletion, where
// the caller does not need to know the current stage.
func (x *stageIndex) removeEverywhere(id uuid.UUID) {
	for stage := range x.buckets {
		x.remove(stage, id)
	}
}

func (x *stageIndex) contains(stage string, id uuid.UUID) bool {
	for _, member := range x.buckets[stage] {
		if member == id {
			return true
		}
	}
	return false
}

// members returns a copy of the named bucket in insertion order.
func (x *stageIndex) members(stage string) []uuid.UUID {
	bucket := x.buckets[stage]
	out := make([]uuid.UUID, len(bucket))
	copy(out, bucket)
	return out
}

// checkPartition verifies the structural invariant: the union of all buckets
// equals exactly the registry's identifier set, with no duplicates across
// buckets. Returns a descriptive error on the first violation found.
func (x *stageIndex) checkPartition(registry *leadRegistry) error {
	seen := make(map[uuid.UUID]string, registry.len())
	for _, stage := range x.stages.Names() {
		for _, id := range x.buckets[stage] {
			if prior, dup := seen[id]; dup {
				return fmt.Errorf("lead %s present in both %q and %q buckets", id, prior, stage)
			}
			seen[id] = stage
			lead, ok := registry.get(id)
			if !ok {
				return fmt.Errorf("bucket %q references unknown lead %s", stage, id)
			}
			if lead.Stage != stage {
				return fmt.Errorf("lead %s has stage %q but sits in bucket %q", id, lead.Stage, stage)
			}
		}
	}
	if len(seen) != registry.len() {
		return fmt.Errorf("index holds %d leads, registry holds %d", len(seen), registry.len())
	}
	return nil
}
