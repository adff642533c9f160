package memory

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
)

var compactionLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("ICONWIRE_DEBUG_COMPACTION") == "1" {
		compactionLogger = log.New(os.Stdout, "[compaction] ", log.Ltime|log.Lmsgprefix)
	}
}

// Compactor moves elements out of sparse batches.
type Compactor struct{}

func newCompactor() *Compactor {
	return &Compactor{}
}

func utilization(b *Batch) float64 {
	if len(b.slots) == 0 {
		return 0
	}
	return float64(len(b.activeSlots)) / float64(len(b.slots))
}

// ScanForCompaction returns the batches below DefragThreshold utilization,
// sparsest first.
func (c *Compactor) ScanForCompaction(buckets map[BucketSize]*BucketPool) []*Batch {
	if !DefragEnableCompaction {
		return nil
	}

	var candidates []*Batch
	for _, size := range bucketSizes {
		pool := buckets[size]
		if pool == nil {
			continue
		}
		for i, batch := range pool.batches {
			util := utilization(batch)
			if util >= DefragThreshold {
				continue
			}
			candidates = append(candidates, batch)
			compactionLogger.Printf("[%s] batch[%d/%d]#%d - CANDIDATE (%.1f%% util, %d/%d slots active)",
				size, i+1, len(pool.batches), batch.id, util*100, len(batch.activeSlots), len(batch.slots))
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return utilization(candidates[i]) < utilization(candidates[j])
	})
	return candidates
}

// CompactBatch moves the source batch's elements into other batches of the
// same bucket and returns how many were moved.
func (c *Compactor) CompactBatch(ctrl *Controller, source *Batch) (int, error) {
	if !DefragEnableCompaction {
		return 0, nil
	}

	pool := ctrl.buckets[source.bucketSize]
	var targets []*Batch
	for _, b := range pool.batches {
		if b.id != source.id && b.hasCapacity() && b.bucketSize != BucketDedicated {
			targets = append(targets, b)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	toMove := append([]int(nil), source.activeSlots...)
	moved := 0
	for _, slotIndex := range toMove {
		var target *Batch
		for _, t := range targets {
			if t.hasCapacity() {
				target = t
				break
			}
		}
		if target == nil {
			break
		}
		if err := c.moveSlot(ctrl, source, slotIndex, target); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// moveSlot copies one slot's vertices to target through a CPU round trip
// and repoints the element's allocation.
func (c *Compactor) moveSlot(ctrl *Controller, source *Batch, slotIndex int, target *Batch) error {
	slot := source.slots[slotIndex]
	alloc := ctrl.elements[slot.element]
	if alloc == nil {
		return fmt.Errorf("%s has no allocation record", slot.element)
	}

	pool := ctrl.buckets[target.bucketSize]
	targetIndex, err := target.allocateSlotInBatch(pool, slot.element, slot.vertexCount)
	if err != nil {
		return err
	}

	data := make([]float32, slot.vertexCount*FloatsPerVertex)
	ctrl.backend.Read(source.buffer, slot.vertexOffset*FloatsPerVertex, data)
	ctrl.backend.Upload(target.buffer, target.slots[targetIndex].vertexOffset*FloatsPerVertex, data)

	alloc.batch = target
	alloc.slotIndex = targetIndex

	source.freeSlot(slotIndex)
	ctrl.buckets[source.bucketSize].addFreeSlot(SlotRef{batch: source, slotIndex: slotIndex})
	compactionLogger.Printf("moved %s from batch#%d slot %d to batch#%d slot %d",
		slot.element, source.id, slotIndex, target.id, targetIndex)
	return nil
}
