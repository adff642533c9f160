package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	buffer        uint32
	firsts, count []int32
}

type fakeBackend struct {
	next    uint32
	buffers map[uint32][]float32
	deleted []uint32
	draws   []drawCall
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{buffers: make(map[uint32][]float32)}
}

func (f *fakeBackend) CreateBuffer(floats int) (uint32, error) {
	f.next++
	f.buffers[f.next] = make([]float32, floats)
	return f.next, nil
}

func (f *fakeBackend) Upload(buffer uint32, offset int, data []float32) {
	copy(f.buffers[buffer][offset:], data)
}

func (f *fakeBackend) Read(buffer uint32, offset int, data []float32) {
	copy(data, f.buffers[buffer][offset:])
}

func (f *fakeBackend) DeleteBuffer(buffer uint32) {
	delete(f.buffers, buffer)
	f.deleted = append(f.deleted, buffer)
}

func (f *fakeBackend) Draw(buffer uint32, firsts, counts []int32) {
	f.draws = append(f.draws, drawCall{buffer, firsts, counts})
}

// vertices returns n vertices whose every float is v.
func vertices(n int, v float32) []float32 {
	out := make([]float32, n*FloatsPerVertex)
	for i := range out {
		out[i] = v
	}
	return out
}

func node(i int) ElementID { return ElementID{Kind: KindNode, Index: i} }
func wire(i int) ElementID { return ElementID{Kind: KindConnection, Index: i} }

func TestEnsureSlotRejectsBadInput(t *testing.T) {
	c := NewController(newFakeBackend())
	assert.Error(t, c.EnsureSlot(node(0), nil))
	assert.Error(t, c.EnsureSlot(node(0), make([]float32, FloatsPerVertex+1)))
	assert.False(t, c.Has(node(0)))
}

func TestEnsureSlotPacksBatch(t *testing.T) {
	fb := newFakeBackend()
	c := NewController(fb)
	require.NoError(t, c.EnsureSlot(node(0), vertices(6, 1)))
	require.NoError(t, c.EnsureSlot(node(1), vertices(12, 2)))

	a, b := c.elements[node(0)], c.elements[node(1)]
	assert.Same(t, a.batch, b.batch)
	assert.Equal(t, 0, a.slotIndex)
	assert.Equal(t, 1, b.slotIndex)
	assert.Len(t, fb.buffers[a.batch.buffer], vertexCapacityS*slotsPerBatchS*FloatsPerVertex)
	assert.Equal(t, float32(2), fb.buffers[a.batch.buffer][vertexCapacityS*FloatsPerVertex])

	c.Draw([]ElementID{node(0), node(1)})
	require.Len(t, fb.draws, 1)
	assert.Equal(t, []int32{0, vertexCapacityS}, fb.draws[0].firsts)
	assert.Equal(t, []int32{6, 12}, fb.draws[0].count)
	assert.NoError(t, c.ValidateIntegrity())
}

func TestEnsureSlotUpdatesInPlace(t *testing.T) {
	fb := newFakeBackend()
	c := NewController(fb)
	require.NoError(t, c.EnsureSlot(node(0), vertices(6, 1)))
	before := *c.elements[node(0)]

	require.NoError(t, c.EnsureSlot(node(0), vertices(30, 3)))
	after := c.elements[node(0)]
	assert.Same(t, before.batch, after.batch)
	assert.Equal(t, before.slotIndex, after.slotIndex)
	assert.Equal(t, 30, after.vertexCount)

	// Outgrowing the slot moves the element to the next bucket.
	require.NoError(t, c.EnsureSlot(node(0), vertices(vertexCapacityS+1, 4)))
	assert.Equal(t, BucketM, c.elements[node(0)].batch.bucketSize)
	assert.NoError(t, c.ValidateIntegrity())
}

func TestDrawPreservesOrderAcrossBatches(t *testing.T) {
	fb := newFakeBackend()
	c := NewController(fb)
	require.NoError(t, c.EnsureSlot(node(0), vertices(6, 1)))
	require.NoError(t, c.EnsureSlot(wire(0), vertices(vertexCapacityS+6, 1)))
	require.NoError(t, c.EnsureSlot(node(1), vertices(6, 1)))

	c.Draw([]ElementID{node(0), node(1), wire(0), wire(7)})
	require.Len(t, fb.draws, 2, "nodes share a draw; unknown wire is skipped")
	assert.Len(t, fb.draws[0].firsts, 2)
	assert.Equal(t, []int32{vertexCapacityS + 6}, fb.draws[1].count)

	fb.draws = nil
	c.Draw([]ElementID{node(0), wire(0), node(1)})
	assert.Len(t, fb.draws, 3)
	assert.Equal(t, 3, c.Stats().DrawCallsPerFrame)
}

func TestRemoveReusesLowestSlot(t *testing.T) {
	c := NewController(newFakeBackend())
	for i := 0; i < 4; i++ {
		require.NoError(t, c.EnsureSlot(node(i), vertices(6, 1)))
	}
	require.NoError(t, c.Remove(node(2)))
	require.NoError(t, c.Remove(node(1)))
	assert.Error(t, c.Remove(node(1)))

	require.NoError(t, c.EnsureSlot(node(9), vertices(6, 1)))
	assert.Equal(t, 1, c.elements[node(9)].slotIndex)
	assert.NoError(t, c.ValidateIntegrity())
}

func TestRetain(t *testing.T) {
	c := NewController(newFakeBackend())
	for i := 0; i < 3; i++ {
		require.NoError(t, c.EnsureSlot(node(i), vertices(6, 1)))
	}
	require.NoError(t, c.EnsureSlot(wire(0), vertices(6, 1)))

	released := c.Retain(map[ElementID]bool{node(0): true, wire(0): true})
	assert.Equal(t, 2, released)
	assert.True(t, c.Has(node(0)))
	assert.False(t, c.Has(node(1)))
	assert.True(t, c.Has(wire(0)))
	assert.Equal(t, 2, c.Stats().TotalElements)
}

func TestDedicatedBucket(t *testing.T) {
	fb := newFakeBackend()
	c := NewController(fb)
	n := vertexCapacityL + 100
	require.NoError(t, c.EnsureSlot(wire(0), vertices(n, 1)))

	alloc := c.elements[wire(0)]
	assert.Equal(t, BucketDedicated, alloc.batch.bucketSize)
	assert.Len(t, fb.buffers[alloc.batch.buffer], n*FloatsPerVertex)

	// Shrinking stays in the dedicated buffer.
	require.NoError(t, c.EnsureSlot(wire(0), vertices(n-50, 1)))
	assert.Same(t, alloc.batch, c.elements[wire(0)].batch)
}

func TestCompactionMovesSparseBatch(t *testing.T) {
	fb := newFakeBackend()
	c := NewController(fb)
	for i := 0; i <= slotsPerBatchS; i++ {
		require.NoError(t, c.EnsureSlot(node(i), vertices(6, float32(i))))
	}
	require.Len(t, c.buckets[BucketS].batches, 2)
	spill := c.elements[node(slotsPerBatchS)].batch
	for i := 0; i < 10; i++ {
		require.NoError(t, c.Remove(node(i)))
	}

	require.NoError(t, c.TryCompaction())

	assert.Len(t, c.buckets[BucketS].batches, 1)
	assert.Contains(t, fb.deleted, spill.buffer)
	moved := c.elements[node(slotsPerBatchS)]
	assert.NotSame(t, spill, moved.batch)
	assert.Equal(t, 0, moved.slotIndex)

	data := fb.buffers[moved.batch.buffer][:FloatsPerVertex]
	assert.Equal(t, vertices(1, float32(slotsPerBatchS)), data)

	stats := c.Stats()
	assert.Equal(t, 1, stats.SlotsRelocated)
	assert.Equal(t, 1, stats.BatchDeletions)
	assert.Equal(t, 1, stats.TotalBatches)
	assert.NoError(t, c.ValidateIntegrity())
}

func TestCompactionReleasesEmptyBatch(t *testing.T) {
	fb := newFakeBackend()
	c := NewController(fb)
	require.NoError(t, c.EnsureSlot(node(0), vertices(6, 1)))
	require.NoError(t, c.Remove(node(0)))

	require.NoError(t, c.TryCompaction())
	assert.Empty(t, c.buckets[BucketS].batches)
	assert.Empty(t, c.buckets[BucketS].freeSlots)
	assert.Len(t, fb.deleted, 1)
}

func TestValidateIntegrityDetectsCorruption(t *testing.T) {
	c := NewController(newFakeBackend())
	require.NoError(t, c.EnsureSlot(node(0), vertices(6, 1)))
	require.NoError(t, c.EnsureSlot(node(1), vertices(6, 1)))
	require.NoError(t, c.ValidateIntegrity())

	alloc := c.elements[node(0)]
	alloc.batch.slots[alloc.slotIndex].element = node(5)
	assert.Error(t, c.ValidateIntegrity())
}

func TestCleanup(t *testing.T) {
	fb := newFakeBackend()
	c := NewController(fb)
	require.NoError(t, c.EnsureSlot(node(0), vertices(6, 1)))
	require.NoError(t, c.EnsureSlot(wire(0), vertices(vertexCapacityS+1, 1)))
	c.Cleanup()
	assert.Empty(t, fb.buffers)
	assert.False(t, c.Has(node(0)))
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "999", formatNumber(999))
	assert.Equal(t, "1.5K", formatNumber(1500))
	assert.Equal(t, "2.0M", formatNumber(2000000))
	assert.Equal(t, "██░░", makeUtilizationBar(0.5, 4))
	assert.Equal(t, "████", makeUtilizationBar(3, 4))
	assert.Equal(t, "node#3", node(3).String())
	assert.Equal(t, "dedicated", BucketDedicated.String())
}
