package buffer

import (
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/norasector/nexus/pkg/nexus/types"
	"gonum.org/v1/gonum/mat"
)

func block(num, rows, cols int, start float64, received time.Time) *types.Block {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = start + float64(i)
	}
	return &types.Block{
		Number:     num,
		Received:   received,
		SampleRate: 4,
		Data:       mat.NewDense(rows, cols, data),
	}
}

func TestDrainStacks(t *testing.T) {
	b := New()
	now := time.Unix(100, 0)
	if err := b.Append(block(1, 2, 2, 0, now)); err != nil {
		t.Fatal(err)
	}
	if err := b.Append(block(2, 1, 2, 10, now.Add(time.Second))); err != nil {
		t.Fatal(err)
	}
	if got := b.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}

	data, index := b.Drain()
	want := mat.NewDense(3, 2, []float64{0, 1, 2, 3, 10, 11})
	if !mat.Equal(data, want) {
		t.Errorf("Drain() = %v, want %v", mat.Formatted(data), mat.Formatted(want))
	}

	wantIndex := []time.Time{
		now.Add(-250 * time.Millisecond),
		now,
		now.Add(time.Second),
	}
	if !reflect.DeepEqual(index, wantIndex) {
		t.Errorf("Drain() index = %v, want %v", index, wantIndex)
	}

	if data, index := b.Drain(); data != nil || index != nil {
		t.Errorf("second Drain() should be empty")
	}
}

func TestAppendRejectsChannelMismatch(t *testing.T) {
	b := New()
	if err := b.Append(block(1, 2, 2, 0, time.Now())); err != nil {
		t.Fatal(err)
	}
	if err := b.Append(block(2, 2, 3, 0, time.Now())); err == nil {
		t.Error("expected channel mismatch error")
	}
}

func TestAppendIgnoresEmpty(t *testing.T) {
	b := New()
	if err := b.Append(nil); err != nil {
		t.Fatal(err)
	}
	if err := b.Append(&types.Block{}); err != nil {
		t.Fatal(err)
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
}

func TestConcurrentAppend(t *testing.T) {
	b := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				b.Append(block(i*50+j, 2, 3, 0, time.Now()))
			}
		}(i)
	}
	wg.Wait()
	data, index := b.Drain()
	if r, c := data.Dims(); r != 800 || c != 3 {
		t.Errorf("dims = %dx%d, want 800x3", r, c)
	}
	if len(index) != 800 {
		t.Errorf("index len = %d, want 800", len(index))
	}
}

func TestTimestampsZeroRate(t *testing.T) {
	now := time.Unix(5, 0)
	got := Timestamps(now, 2, 0)
	if !reflect.DeepEqual(got, []time.Time{now, now}) {
		t.Errorf("Timestamps() = %v", got)
	}
}
