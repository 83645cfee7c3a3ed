package craft

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRefineryPool(t *testing.T) {
	_, err := NewRefineryPool(0)
	assert.ErrorContains(t, err, "must be positive")
	_, err = NewRefineryPool(-3)
	assert.Error(t, err)

	p, err := NewRefineryPool(2)
	require.NoError(t, err)
	assert.Equal(t, 2, p.Size())
	assert.False(t, p.Unbounded())
}

func TestRefineryPoolBalancing(t *testing.T) {
	t.Run("five equal jobs over two queues", func(t *testing.T) {
		p, err := NewRefineryPool(2)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			p.AddJob(RefineryJob{Duration: 10 * time.Second, Batch: 1})
		}

		require.Equal(t, 2, p.OpenQueues())
		// Greedy balancing splits 5 jobs 3/2 and the makespan is three jobs.
		assert.Equal(t, 3, p.Queues()[0].Len())
		assert.Equal(t, 2, p.Queues()[1].Len())
		assert.Equal(t, 30*time.Second, p.MaxTime())
		assert.Equal(t, 3, p.MaxLen())
	})

	t.Run("uneven jobs land on the shortest queue", func(t *testing.T) {
		p, err := NewRefineryPool(2)
		require.NoError(t, err)
		p.AddJob(RefineryJob{Duration: 30 * time.Second})
		p.AddJob(RefineryJob{Duration: 5 * time.Second})
		p.AddJob(RefineryJob{Duration: 5 * time.Second})
		p.AddJob(RefineryJob{Duration: 5 * time.Second})

		assert.Equal(t, 30*time.Second, p.Queues()[0].TotalTime())
		assert.Equal(t, 15*time.Second, p.Queues()[1].TotalTime())
		assert.Equal(t, 30*time.Second, p.MaxTime())
	})

	t.Run("equal jobs makespan is ceil of jobs over queues", func(t *testing.T) {
		d := 7 * time.Second
		for _, tc := range []struct{ jobs, queues int }{
			{1, 1}, {4, 2}, {5, 2}, {7, 3}, {9, 3}, {10, 4},
		} {
			t.Run(fmt.Sprintf("%d jobs %d queues", tc.jobs, tc.queues), func(t *testing.T) {
				p, err := NewRefineryPool(tc.queues)
				require.NoError(t, err)
				for i := 0; i < tc.jobs; i++ {
					p.AddJob(RefineryJob{Duration: d})
				}
				rounds := (tc.jobs + tc.queues - 1) / tc.queues
				assert.Equal(t, time.Duration(rounds)*d, p.MaxTime())
			})
		}
	})
}

func TestUnboundedRefineryPool(t *testing.T) {
	p := UnboundedRefineryPool()
	assert.True(t, p.Unbounded())

	for i := 0; i < 4; i++ {
		p.AddJob(RefineryJob{Duration: time.Duration(i+1) * time.Second})
	}
	// Every job opens its own queue, so the makespan is the longest job.
	assert.Equal(t, 4, p.OpenQueues())
	assert.Equal(t, 1, p.MaxLen())
	assert.Equal(t, 4*time.Second, p.MaxTime())
}

func TestProductionLine(t *testing.T) {
	t.Run("craft pool is always serial", func(t *testing.T) {
		line := NewProductionLine(RefineryLimits{SizeCraft: 8, SizeMedium: 3, SizeBig: 2})
		assert.Equal(t, 1, line.Craft().Size())
		assert.Equal(t, 3, line.Medium().Size())
		assert.Equal(t, 2, line.Big().Size())
	})

	t.Run("missing limits mean unbounded", func(t *testing.T) {
		line := NewProductionLine(RefineryLimits{})
		assert.True(t, line.Medium().Unbounded())
		assert.True(t, line.Big().Unbounded())
		assert.Equal(t, 1, line.Craft().Size())
	})

	t.Run("non-positive limits mean unbounded", func(t *testing.T) {
		line := NewProductionLine(RefineryLimits{SizeMedium: 0, SizeBig: -1})
		assert.True(t, line.Medium().Unbounded())
		assert.True(t, line.Big().Unbounded())
	})

	t.Run("makespan is the busiest pool", func(t *testing.T) {
		line := NewProductionLine(DefaultRefineryLimits())
		line.Medium().AddJob(RefineryJob{Duration: 10 * time.Second})
		line.Big().AddJob(RefineryJob{Duration: 25 * time.Second})
		line.Craft().AddJob(RefineryJob{Duration: 2 * time.Second})
		assert.Equal(t, 25*time.Second, line.MaxTime())
	})
}

func TestDefaultRefineryLimits(t *testing.T) {
	limits := DefaultRefineryLimits()
	assert.Equal(t, 3, limits[SizeMedium])
	assert.Equal(t, 2, limits[SizeBig])
}

func TestLCM(t *testing.T) {
	cases := []struct {
		a, b, want int
	}{
		{1, 1, 1},
		{2, 3, 6},
		{4, 6, 12},
		{5, 5, 5},
		{3, 5, 15},
		{2, 10, 10},
	}
	for _, tc := range cases {
		got, err := lcm(tc.a, tc.b)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "lcm(%d, %d)", tc.a, tc.b)
	}

	_, err := lcm(0, 4)
	assert.ErrorContains(t, err, "positive quantities")
	_, err = lcm(3, -1)
	assert.Error(t, err)
}
