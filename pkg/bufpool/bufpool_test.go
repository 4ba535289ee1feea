package bufpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUsesSmallestFittingClass(t *testing.T) {
	p := New(1024, 4096)

	tests := []struct {
		size    int
		wantCap int
	}{
		{0, 1024},
		{1, 1024},
		{1024, 1024},
		{1025, 4096},
		{4096, 4096},
		{5000, 5000},
	}
	for _, tt := range tests {
		buf := p.Get(tt.size)
		assert.Len(t, buf, tt.size)
		assert.Equal(t, tt.wantCap, cap(buf), "size %d", tt.size)
		p.Put(buf)
	}
}

func TestNewNormalizesClasses(t *testing.T) {
	p := New(4096, -1, 1024, 4096, 0)
	assert.Equal(t, []int{1024, 4096}, p.Classes())

	assert.Equal(t, DefaultClasses, New().Classes())
}

func TestPutRestoresFullLength(t *testing.T) {
	p := New(64)

	buf := p.Get(10)
	buf[0] = 'x'
	p.Put(buf[:3])

	again := p.Get(64)
	require.Len(t, again, 64)
	assert.Equal(t, 64, cap(again))
}

func TestPutIgnoresForeignBuffers(t *testing.T) {
	p := New(64)
	assert.NotPanics(t, func() {
		p.Put(nil)
		p.Put(make([]byte, 10))
		p.Put(make([]byte, 100))
	})
}

func TestPackageLevelPool(t *testing.T) {
	buf := Get(8 << 10)
	assert.Len(t, buf, 8<<10)
	assert.Equal(t, 8<<10, cap(buf))
	Put(buf)
}

func TestConcurrentUse(t *testing.T) {
	p := New(128, 1024)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				size := (n*31 + j) % 2048
				buf := p.Get(size)
				if len(buf) != size {
					t.Errorf("got len %d, want %d", len(buf), size)
					return
				}
				p.Put(buf)
			}
		}(i)
	}
	wg.Wait()
}

func BenchmarkGetPut(b *testing.B) {
	p := New()
	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			p.Put(p.Get(8 << 10))
		}
	})
}
