// Package memory manages the GPU vertex buffers that hold scene geometry.
//
// Every drawable element (a node, a connection, an overlay glyph) owns one
// fixed-capacity slot in a shared buffer. Slots are grouped into batches by
// size bucket so that consecutive elements in the same batch are drawn with a
// single multi-draw call, while a single element can be re-uploaded without
// touching its neighbours.
package memory

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
	"time"
)

var memoryLogger *log.Logger = log.New(io.Discard, "", 0)

func init() {
	if os.Getenv("ICONWIRE_DEBUG_MEMORY") == "1" {
		memoryLogger = log.New(os.Stdout, "[memory] ", log.Ltime|log.Lmsgprefix)
	}
}

const (
	// FloatsPerVertex is the vertex layout shared with the shaders: xyz
	// position followed by rgba colour.
	FloatsPerVertex = 7

	// If a batch's slot utilization drops below DefragThreshold its elements
	// are moved into other batches of the same bucket, after which the empty
	// batch is released. At most DefragMaxPerFrame batches are compacted per
	// call to TryCompaction.
	DefragEnableCompaction = true
	DefragThreshold        = 0.25
	DefragMaxPerFrame      = 1

	vertexCapacityS = 256
	vertexCapacityM = 1024
	vertexCapacityL = 4096
	slotsPerBatchS  = 64
	slotsPerBatchM  = 32
	slotsPerBatchL  = 8
)

// BucketSize is the size class of an element's geometry.
type BucketSize int

const (
	BucketS         BucketSize = iota // up to 256 vertices: nodes, short wires
	BucketM                           // up to 1K vertices: long wires, glyph sets
	BucketL                           // up to 4K vertices
	BucketDedicated                   // one buffer per element, for outliers
)

var bucketSizes = []BucketSize{BucketS, BucketM, BucketL, BucketDedicated}

func (bs BucketSize) String() string {
	switch bs {
	case BucketS:
		return "small"
	case BucketM:
		return "medium"
	case BucketL:
		return "large"
	case BucketDedicated:
		return "dedicated"
	default:
		return "unknown"
	}
}

// ElementKind distinguishes the scene collections an element comes from.
type ElementKind int

const (
	KindNode ElementKind = iota
	KindConnection
	KindOverlay
)

func (k ElementKind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindConnection:
		return "connection"
	case KindOverlay:
		return "overlay"
	default:
		return "unknown"
	}
}

// ElementID identifies a drawable element. Index is the element's scene
// index, which stays stable while the collections around it change.
type ElementID struct {
	Kind  ElementKind
	Index int
}

func (id ElementID) String() string { return fmt.Sprintf("%s#%d", id.Kind, id.Index) }

// Controller tracks which slot holds each element's vertices.
type Controller struct {
	backend     Backend
	buckets     map[BucketSize]*BucketPool
	elements    map[ElementID]*SlotAllocation
	stats       Stats
	compactor   *Compactor
	nextBatchID int
}

// Stats tracks buffer usage.
type Stats struct {
	TotalElements        int
	TotalVertices        int64
	TotalGPUBytes        int64
	TotalBatches         int
	TotalSlots           int
	TotalActiveSlots     int
	TotalActiveBatches   int
	DrawCallsPerFrame    int
	BucketSizeStats      map[BucketSize]BucketSizeStats
	CompactionEvents     int
	LastCompactionTimeUs float64
	BatchDeletions       int
	SlotsRelocated       int
	FreeSlots            int
}

// BucketSizeStats tracks usage across batches of one size.
type BucketSizeStats struct {
	ElementCount  int
	BatchCount    int
	TotalSlots    int
	ActiveSlots   int
	ActiveBatches int
	FreeSlots     int
	GPUBytes      int64
	Vertices      int64
}

// Slot is a fixed-capacity region within a batch.
type Slot struct {
	active       bool
	element      ElementID
	vertexCount  int
	vertexOffset int
}

// Batch is one backend buffer split into equally sized slots.
type Batch struct {
	id                  int
	buffer              uint32
	totalVertexCapacity int
	slots               []Slot
	activeSlots         []int // indices into slots
	bucketSize          BucketSize
}

// BucketPool holds the batches and free slots of one bucket size.
type BucketPool struct {
	size                  BucketSize
	vertexCapacityPerSlot int
	slotsPerBatch         int
	batches               []*Batch
	freeSlots             []SlotRef // sorted by (batch id, slot index)
}

// SlotRef references a slot within a batch.
type SlotRef struct {
	batch     *Batch
	slotIndex int
}

// SlotAllocation records where an element's vertices live.
type SlotAllocation struct {
	batch       *Batch
	slotIndex   int
	vertexCount int
}

func selectBucket(vertexCount int) BucketSize {
	switch {
	case vertexCount <= vertexCapacityS:
		return BucketS
	case vertexCount <= vertexCapacityM:
		return BucketM
	case vertexCount <= vertexCapacityL:
		return BucketL
	default:
		return BucketDedicated
	}
}

func newBucketPool(size BucketSize) *BucketPool {
	pool := &BucketPool{size: size}
	switch size {
	case BucketS:
		pool.vertexCapacityPerSlot, pool.slotsPerBatch = vertexCapacityS, slotsPerBatchS
	case BucketM:
		pool.vertexCapacityPerSlot, pool.slotsPerBatch = vertexCapacityM, slotsPerBatchM
	case BucketL:
		pool.vertexCapacityPerSlot, pool.slotsPerBatch = vertexCapacityL, slotsPerBatchL
	case BucketDedicated:
		pool.slotsPerBatch = 1
	}
	return pool
}

func (ref SlotRef) less(o SlotRef) bool {
	if ref.batch.id != o.batch.id {
		return ref.batch.id < o.batch.id
	}
	return ref.slotIndex < o.slotIndex
}

// takeFreeSlot pops the lowest free slot, keeping geometry packed towards the
// front of the oldest batches.
func (bp *BucketPool) takeFreeSlot() (SlotRef, bool) {
	if len(bp.freeSlots) == 0 {
		return SlotRef{}, false
	}
	ref := bp.freeSlots[0]
	bp.freeSlots = bp.freeSlots[1:]
	return ref, true
}

func (bp *BucketPool) addFreeSlot(ref SlotRef) {
	i := sort.Search(len(bp.freeSlots), func(i int) bool { return ref.less(bp.freeSlots[i]) })
	bp.freeSlots = append(bp.freeSlots, SlotRef{})
	copy(bp.freeSlots[i+1:], bp.freeSlots[i:])
	bp.freeSlots[i] = ref
}

func (bp *BucketPool) removeFromFreeList(batch *Batch, slotIndex int) {
	kept := bp.freeSlots[:0]
	for _, ref := range bp.freeSlots {
		if ref.batch.id == batch.id && ref.slotIndex == slotIndex {
			continue
		}
		kept = append(kept, ref)
	}
	bp.freeSlots = kept
}

// NewController returns a controller that allocates buffers from backend.
func NewController(backend Backend) *Controller {
	c := &Controller{
		backend:   backend,
		buckets:   make(map[BucketSize]*BucketPool),
		elements:  make(map[ElementID]*SlotAllocation),
		stats:     Stats{BucketSizeStats: make(map[BucketSize]BucketSizeStats)},
		compactor: newCompactor(),
	}
	for _, size := range bucketSizes {
		c.buckets[size] = newBucketPool(size)
	}
	return c
}

// createBatch allocates a new buffer for the bucket. Dedicated batches are
// sized to the element.
func (c *Controller) createBatch(bucket BucketSize, vertexCount int) (*Batch, error) {
	pool := c.buckets[bucket]

	totalVertexCapacity := pool.vertexCapacityPerSlot * pool.slotsPerBatch
	if bucket == BucketDedicated {
		totalVertexCapacity = vertexCount
	}

	buffer, err := c.backend.CreateBuffer(totalVertexCapacity * FloatsPerVertex)
	if err != nil {
		return nil, err
	}

	slots := make([]Slot, pool.slotsPerBatch)
	for i := range slots {
		slots[i].vertexOffset = i * pool.vertexCapacityPerSlot
	}

	batch := &Batch{
		id:                  c.nextBatchID,
		buffer:              buffer,
		totalVertexCapacity: totalVertexCapacity,
		slots:               slots,
		bucketSize:          bucket,
	}
	c.nextBatchID++
	pool.batches = append(pool.batches, batch)

	memoryLogger.Printf("created batch#%03d (%s, %d slots, %d vertices)", batch.id, bucket, len(slots), totalVertexCapacity)
	return batch, nil
}

// allocateSlotInBatch claims the first inactive slot of the batch.
func (b *Batch) allocateSlotInBatch(pool *BucketPool, id ElementID, vertexCount int) (int, error) {
	for i := range b.slots {
		if b.slots[i].active {
			continue
		}
		b.slots[i].active = true
		b.slots[i].element = id
		b.slots[i].vertexCount = vertexCount
		b.activeSlots = append(b.activeSlots, i)
		pool.removeFromFreeList(b, i)
		return i, nil
	}
	return -1, fmt.Errorf("no available slots in batch %d", b.id)
}

func (b *Batch) freeSlot(slotIndex int) {
	if slotIndex < 0 || slotIndex >= len(b.slots) {
		return
	}
	b.slots[slotIndex] = Slot{vertexOffset: b.slots[slotIndex].vertexOffset}

	for i, idx := range b.activeSlots {
		if idx == slotIndex {
			last := len(b.activeSlots) - 1
			b.activeSlots[i] = b.activeSlots[last]
			b.activeSlots = b.activeSlots[:last]
			break
		}
	}
}

func (b *Batch) slotCapacity(pool *BucketPool, slotIndex int) int {
	if b.bucketSize == BucketDedicated {
		return b.totalVertexCapacity - b.slots[slotIndex].vertexOffset
	}
	return pool.vertexCapacityPerSlot
}

func (b *Batch) hasCapacity() bool { return len(b.activeSlots) < len(b.slots) }

// EnsureSlot stores the element's vertices, reusing its slot when the new
// geometry still fits and moving it to another bucket otherwise.
func (c *Controller) EnsureSlot(id ElementID, vertices []float32) error {
	if len(vertices) == 0 {
		return fmt.Errorf("cannot allocate empty vertex data for %s", id)
	}
	if len(vertices)%FloatsPerVertex != 0 {
		return fmt.Errorf("vertex data must be a multiple of %d floats (x,y,z,r,g,b,a), got %d", FloatsPerVertex, len(vertices))
	}
	vertexCount := len(vertices) / FloatsPerVertex

	if existing, ok := c.elements[id]; ok {
		pool := c.buckets[existing.batch.bucketSize]
		if vertexCount <= existing.batch.slotCapacity(pool, existing.slotIndex) {
			existing.vertexCount = vertexCount
			existing.batch.slots[existing.slotIndex].vertexCount = vertexCount
			c.upload(existing.batch, existing.slotIndex, vertices)
			return nil
		}
		if err := c.Remove(id); err != nil {
			return fmt.Errorf("failed to remove %s for reallocation: %w", id, err)
		}
	}

	bucket := selectBucket(vertexCount)
	pool := c.buckets[bucket]

	batch, slotIndex, err := c.claimSlot(pool, id, vertexCount)
	if err != nil {
		return err
	}
	c.upload(batch, slotIndex, vertices)
	c.elements[id] = &SlotAllocation{batch: batch, slotIndex: slotIndex, vertexCount: vertexCount}
	memoryLogger.Printf("%s -> batch#%03d slot %d (%d vertices)", id, batch.id, slotIndex, vertexCount)
	return nil
}

func (c *Controller) claimSlot(pool *BucketPool, id ElementID, vertexCount int) (*Batch, int, error) {
	for {
		ref, ok := pool.takeFreeSlot()
		if !ok {
			break
		}
		if vertexCount > ref.batch.slotCapacity(pool, ref.slotIndex) {
			// Too small a dedicated buffer; leave it for compaction to release.
			continue
		}
		slot := &ref.batch.slots[ref.slotIndex]
		slot.active = true
		slot.element = id
		slot.vertexCount = vertexCount
		ref.batch.activeSlots = append(ref.batch.activeSlots, ref.slotIndex)
		return ref.batch, ref.slotIndex, nil
	}

	var batch *Batch
	if pool.size != BucketDedicated {
		for _, b := range pool.batches {
			if b.hasCapacity() {
				batch = b
				break
			}
		}
	}
	if batch == nil {
		var err error
		batch, err = c.createBatch(pool.size, vertexCount)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to create batch for bucket %s: %w", pool.size, err)
		}
	}
	slotIndex, err := batch.allocateSlotInBatch(pool, id, vertexCount)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to allocate slot: %w", err)
	}
	return batch, slotIndex, nil
}

func (c *Controller) upload(batch *Batch, slotIndex int, vertices []float32) {
	c.backend.Upload(batch.buffer, batch.slots[slotIndex].vertexOffset*FloatsPerVertex, vertices)
}

// Has reports whether the element currently owns a slot.
func (c *Controller) Has(id ElementID) bool {
	_, ok := c.elements[id]
	return ok
}

// Remove frees the element's slot.
func (c *Controller) Remove(id ElementID) error {
	alloc, ok := c.elements[id]
	if !ok {
		return fmt.Errorf("%s not found", id)
	}
	alloc.batch.freeSlot(alloc.slotIndex)
	c.buckets[alloc.batch.bucketSize].addFreeSlot(SlotRef{batch: alloc.batch, slotIndex: alloc.slotIndex})
	delete(c.elements, id)
	return nil
}

// Retain frees the slots of every element not in live.
func (c *Controller) Retain(live map[ElementID]bool) int {
	var stale []ElementID
	for id := range c.elements {
		if !live[id] {
			stale = append(stale, id)
		}
	}
	for _, id := range stale {
		_ = c.Remove(id)
	}
	if len(stale) > 0 {
		memoryLogger.Printf("released %d stale elements", len(stale))
	}
	return len(stale)
}

// Draw draws the given elements in order. Runs of consecutive elements that
// share a batch go out as one draw call. Unknown elements are skipped.
func (c *Controller) Draw(order []ElementID) {
	drawCalls := 0
	var (
		current       *Batch
		firsts, count []int32
	)
	flush := func() {
		if current != nil && len(firsts) > 0 {
			c.backend.Draw(current.buffer, firsts, count)
			drawCalls++
		}
		firsts, count = nil, nil
	}
	for _, id := range order {
		alloc, ok := c.elements[id]
		if !ok {
			continue
		}
		if alloc.batch != current {
			flush()
			current = alloc.batch
		}
		slot := alloc.batch.slots[alloc.slotIndex]
		firsts = append(firsts, int32(slot.vertexOffset))
		count = append(count, int32(slot.vertexCount))
	}
	flush()
	c.stats.DrawCallsPerFrame = drawCalls
}

// ValidateIntegrity checks that every tracked element points at a live,
// active slot that points back at it.
func (c *Controller) ValidateIntegrity() error {
	var errors []string

	for id, alloc := range c.elements {
		pool := c.buckets[alloc.batch.bucketSize]
		found := false
		for _, b := range pool.batches {
			if b.id == alloc.batch.id {
				found = true
				break
			}
		}
		if !found {
			errors = append(errors, fmt.Sprintf("%s references deleted batch %d", id, alloc.batch.id))
			continue
		}
		if alloc.slotIndex >= len(alloc.batch.slots) {
			errors = append(errors, fmt.Sprintf("%s has invalid slot index %d (batch has %d slots)",
				id, alloc.slotIndex, len(alloc.batch.slots)))
			continue
		}
		slot := &alloc.batch.slots[alloc.slotIndex]
		if !slot.active {
			errors = append(errors, fmt.Sprintf("%s references inactive slot %d in batch %d", id, alloc.slotIndex, alloc.batch.id))
		}
		if slot.element != id {
			errors = append(errors, fmt.Sprintf("%s slot mismatch: slot holds %s", id, slot.element))
		}
	}

	for _, pool := range c.buckets {
		for _, ref := range pool.freeSlots {
			if ref.batch.slots[ref.slotIndex].active {
				errors = append(errors, fmt.Sprintf("free list holds active slot %d in batch %d", ref.slotIndex, ref.batch.id))
			}
		}
	}

	if len(errors) > 0 {
		log.Printf("memory integrity check failed with %d errors:", len(errors))
		for _, err := range errors {
			log.Printf("  - %s", err)
		}
		return fmt.Errorf("memory integrity check failed with %d errors", len(errors))
	}
	return nil
}

// Cleanup releases every backend buffer.
func (c *Controller) Cleanup() {
	for _, pool := range c.buckets {
		for _, batch := range pool.batches {
			c.backend.DeleteBuffer(batch.buffer)
		}
		pool.batches, pool.freeSlots = nil, nil
	}
	c.elements = make(map[ElementID]*SlotAllocation)
}

// Stats returns current buffer statistics.
func (c *Controller) Stats() Stats {
	c.updateStats()
	return c.stats
}

func (c *Controller) updateStats() {
	c.stats.TotalElements = len(c.elements)
	c.stats.TotalVertices = 0
	c.stats.TotalGPUBytes = 0
	c.stats.TotalBatches = 0
	c.stats.TotalSlots = 0
	c.stats.TotalActiveSlots = 0
	c.stats.TotalActiveBatches = 0
	c.stats.FreeSlots = 0

	for size, pool := range c.buckets {
		s := pool.calculateStats()
		c.stats.TotalBatches += s.BatchCount
		c.stats.TotalGPUBytes += s.GPUBytes
		c.stats.TotalVertices += s.Vertices
		c.stats.TotalSlots += s.TotalSlots
		c.stats.TotalActiveSlots += s.ActiveSlots
		c.stats.TotalActiveBatches += s.ActiveBatches
		c.stats.FreeSlots += s.FreeSlots
		c.stats.BucketSizeStats[size] = s
	}
}

func (bp *BucketPool) calculateStats() BucketSizeStats {
	stats := BucketSizeStats{
		BatchCount: len(bp.batches),
		FreeSlots:  len(bp.freeSlots),
	}
	for _, batch := range bp.batches {
		stats.GPUBytes += int64(batch.totalVertexCapacity * FloatsPerVertex * 4)
		stats.TotalSlots += len(batch.slots)
		stats.ActiveSlots += len(batch.activeSlots)
		if len(batch.activeSlots) > 0 {
			stats.ActiveBatches++
		}
		for _, idx := range batch.activeSlots {
			stats.Vertices += int64(batch.slots[idx].vertexCount)
			stats.ElementCount++
		}
	}
	return stats
}

// PrintStats logs buffer usage with utilization bars.
func (c *Controller) PrintStats() {
	stats := c.Stats()

	slotsUtil := 0.0
	if stats.TotalSlots > 0 {
		slotsUtil = float64(stats.TotalActiveSlots) / float64(stats.TotalSlots)
	}

	memoryLogger.Println("===== Memory Controller Stats =====")
	memoryLogger.Printf("%d compactions (%d slots relocated, %d batches deleted, %.2fμs last), %d draw calls",
		stats.CompactionEvents, stats.SlotsRelocated, stats.BatchDeletions, stats.LastCompactionTimeUs, stats.DrawCallsPerFrame)
	memoryLogger.Printf("%.1f%% slots active (%d/%d), %d free-list slots, %s GPU, %d elements (%s triangles, %s vertices)",
		slotsUtil*100, stats.TotalActiveSlots, stats.TotalSlots, stats.FreeSlots,
		formatNumber(stats.TotalGPUBytes), stats.TotalElements,
		formatNumber(stats.TotalVertices/3), formatNumber(stats.TotalVertices))

	for _, size := range bucketSizes {
		s, ok := stats.BucketSizeStats[size]
		if !ok || s.BatchCount == 0 {
			continue
		}
		util := 0.0
		if s.TotalSlots > 0 {
			util = float64(s.ActiveSlots) / float64(s.TotalSlots)
		}
		memoryLogger.Printf("  [%9s] %s %.0f%% slots active (%d/%d), %d/%d batches active, %s GPU",
			size, makeUtilizationBar(util, 12), util*100, s.ActiveSlots, s.TotalSlots,
			s.ActiveBatches, s.BatchCount, formatNumber(s.GPUBytes))
	}
	memoryLogger.Println("===================================")
}

func makeUtilizationBar(utilization float64, width int) string {
	utilization = min(max(utilization, 0), 1)
	filled := int(utilization * float64(width))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// formatNumber formats large numbers with K/M suffixes.
func formatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000.0)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000.0)
}

// TryCompaction compacts at most DefragMaxPerFrame sparse batches and
// releases empty ones.
func (c *Controller) TryCompaction() error {
	if c.compactor == nil || !DefragEnableCompaction {
		return nil
	}
	candidates := c.compactor.ScanForCompaction(c.buckets)
	if len(candidates) == 0 {
		return nil
	}

	start := time.Now()
	compacted, deleted := 0, 0
	for _, batch := range candidates {
		if compacted >= DefragMaxPerFrame {
			compactionLogger.Printf("reached max compactions (%d) per frame, skipping %d remaining candidates",
				DefragMaxPerFrame, len(candidates)-compacted)
			break
		}

		if len(batch.activeSlots) > 0 {
			relocated, err := c.compactor.CompactBatch(c, batch)
			if err != nil {
				compactionLogger.Printf("failed to compact batch %d: %v", batch.id, err)
				continue
			}
			if relocated > 0 {
				c.stats.CompactionEvents++
				c.stats.SlotsRelocated += relocated
			}
			if len(batch.activeSlots) > 0 {
				compactionLogger.Printf("batch#%d still has active slots after compaction", batch.id)
				if relocated > 0 {
					compacted++
				}
				continue
			}
		}

		if err := c.deleteBatch(batch); err != nil {
			compactionLogger.Printf("failed to delete batch %d: %v", batch.id, err)
			continue
		}
		compacted++
		deleted++
		c.stats.CompactionEvents++
		c.stats.BatchDeletions++
	}

	compactionLogger.Printf("completed: processed %d candidates, compacted %d batches, deleted %d empty batches",
		len(candidates), compacted, deleted)
	if compacted > 0 {
		c.stats.LastCompactionTimeUs = float64(time.Since(start).Microseconds())
	}
	return nil
}

func (c *Controller) deleteBatch(batch *Batch) error {
	if len(batch.activeSlots) > 0 {
		return fmt.Errorf("cannot delete batch %d: still has %d active elements", batch.id, len(batch.activeSlots))
	}

	pool := c.buckets[batch.bucketSize]
	for i, b := range pool.batches {
		if b.id == batch.id {
			pool.batches = append(pool.batches[:i], pool.batches[i+1:]...)
			break
		}
	}
	kept := pool.freeSlots[:0]
	for _, ref := range pool.freeSlots {
		if ref.batch.id != batch.id {
			kept = append(kept, ref)
		}
	}
	pool.freeSlots = kept

	c.backend.DeleteBuffer(batch.buffer)
	compactionLogger.Printf("deleted empty batch %d from bucket %s", batch.id, batch.bucketSize)
	return nil
}
