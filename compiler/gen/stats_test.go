package gen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/faber/compiler/load"
	"github.com/syssam/faber/schema/field"
)

func TestStatsHook(t *testing.T) {
	t.Run("records cells and bytes", func(t *testing.T) {
		stats := &RunStats{}
		g := crmGraph(t, &Config{Hooks: []Hook{StatsHook(stats)}})
		res, err := Generate(context.Background(), g)
		require.NoError(t, err)

		snap := stats.Stats()
		assert.EqualValues(t, 27, snap.TotalCells)
		assert.EqualValues(t, 0, snap.Failures)
		assert.Greater(t, snap.TotalDuration, time.Duration(0))
		assert.Greater(t, snap.AvgCellDuration(), time.Duration(0))

		var size int64
		for _, blob := range res.Artifacts {
			size += int64(len(blob))
		}
		assert.Equal(t, size, snap.TotalBytes)
	})

	t.Run("counts failing cells", func(t *testing.T) {
		user, err := load.NewEntity("User",
			field.String("name").MaxLength(50).Descriptor(),
		)
		require.NoError(t, err)
		line, err := load.NewEntity("Line",
			field.String("order").MaxLength(10).Descriptor(),
			field.ForeignKey("user", "User").OnDelete(field.Cascade).Descriptor(),
		)
		require.NoError(t, err)
		d, err := load.NewConfig("shop", "1.0.0", user, line)
		require.NoError(t, err)

		stats := &RunStats{}
		g, err := NewGraph(&Config{Hooks: []Hook{StatsHook(stats)}}, d)
		require.NoError(t, err)
		_, err = Generate(context.Background(), g)
		require.NoError(t, err)

		snap := stats.Stats()
		assert.EqualValues(t, 18, snap.TotalCells)
		assert.EqualValues(t, 1, snap.Failures)
	})

	t.Run("slow cells trigger the hook", func(t *testing.T) {
		stats := &RunStats{}
		var slow []string
		hook := StatsHook(stats,
			WithSlowThreshold(-time.Nanosecond),
			WithSlowCellHook(func(typ *Type, d time.Duration) {
				slow = append(slow, typ.Name)
			}),
		)
		g := crmGraph(t, &Config{
			Workers: 1,
			Targets: []string{"sql"},
			Kinds:   []ArtifactKind{KindModel},
			Hooks:   []Hook{hook},
		})
		_, err := Generate(context.Background(), g)
		require.NoError(t, err)

		assert.EqualValues(t, 3, stats.Stats().SlowCells)
		assert.Equal(t, []string{"User", "Task", "Tag"}, slow)
	})

	t.Run("reset zeroes the counters", func(t *testing.T) {
		stats := &RunStats{}
		g := crmGraph(t, &Config{Hooks: []Hook{StatsHook(stats)}})
		_, err := Generate(context.Background(), g)
		require.NoError(t, err)
		require.NotZero(t, stats.Stats().TotalCells)

		stats.Reset()
		assert.Equal(t, StatsSnapshot{}, stats.Stats())
	})
}

func TestStatsSnapshotString(t *testing.T) {
	s := StatsSnapshot{
		TotalCells:    4,
		TotalBytes:    2048,
		TotalDuration: 2 * time.Second,
		SlowCells:     1,
		Failures:      2,
	}
	assert.Equal(t, "cells=4 bytes=2048 duration=2s avg=500ms slow=1 failures=2", s.String())
	assert.Equal(t, time.Duration(0), StatsSnapshot{}.AvgCellDuration())
}
