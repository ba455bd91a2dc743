package buffer

import (
	"fmt"
	"sync"
	"time"

	"github.com/norasector/nexus/pkg/nexus/types"
	"gonum.org/v1/gonum/mat"
)

// Buffer accumulates device blocks between updates.
type Buffer struct {
	mu       sync.Mutex
	blocks   []*types.Block
	channels int
}

func New() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Append(block *types.Block) error {
	if block == nil || block.Samples() == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.channels == 0 {
		b.channels = block.Channels()
	} else if block.Channels() != b.channels {
		return fmt.Errorf("block %d has %d channels, buffer holds %d", block.Number, block.Channels(), b.channels)
	}
	b.blocks = append(b.blocks, block)
	return nil
}

// Len returns the number of buffered samples.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, block := range b.blocks {
		n += block.Samples()
	}
	return n
}

// Drain stacks every buffered block into a single matrix and empties the buffer.
// Each row is stamped by walking back from its block's receipt time at the block's rate.
// It returns a nil matrix if nothing is buffered.
func (b *Buffer) Drain() (*mat.Dense, []time.Time) {
	b.mu.Lock()
	blocks := b.blocks
	b.blocks = nil
	b.mu.Unlock()

	if len(blocks) == 0 {
		return nil, nil
	}

	rows := 0
	for _, block := range blocks {
		rows += block.Samples()
	}
	cols := blocks[0].Channels()

	out := mat.NewDense(rows, cols, nil)
	index := make([]time.Time, 0, rows)

	offset := 0
	for _, block := range blocks {
		n := block.Samples()
		out.Slice(offset, offset+n, 0, cols).(*mat.Dense).Copy(block.Data)
		index = append(index, Timestamps(block.Received, n, block.SampleRate)...)
		offset += n
	}

	return out, index
}

// Timestamps returns n sample times ending at last, spaced 1/rate apart.
func Timestamps(last time.Time, n, rate int) []time.Time {
	ret := make([]time.Time, n)
	if rate <= 0 {
		for i := range ret {
			ret[i] = last
		}
		return ret
	}
	period := time.Second / time.Duration(rate)
	for i := 0; i < n; i++ {
		ret[i] = last.Add(-time.Duration(n-1-i) * period)
	}
	return ret
}
