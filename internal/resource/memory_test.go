package resource

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryManagerPressureLadder(t *testing.T) {
	m := NewMemoryManager(MemoryManagerConfig{GlobalMemoryLimitMB: 1000, PressureThreshold: 0.8, GCThreshold: 0.9})

	m.TrackAllocation(500)
	require.Equal(t, PressureNormal, m.Level())
	require.False(t, m.IsUnderPressure())

	m.TrackAllocation(350)
	require.Equal(t, PressureWarning, m.Level())
	require.True(t, m.IsUnderPressure())
	require.False(t, m.ShouldTriggerGC())

	m.TrackAllocation(50)
	require.Equal(t, PressureCritical, m.Level())
	require.True(t, m.ShouldTriggerGC())

	m.Release(900)
	require.Equal(t, PressureNormal, m.Level())
}

func TestMemoryManagerCleanupHandlersRun(t *testing.T) {
	m := NewMemoryManager(DefaultMemoryManagerConfig())
	called := 0
	m.RegisterCleanupHandler(func() { called++ })
	m.RegisterCleanupHandler(func() { called++ })

	m.TriggerCleanup()

	require.Equal(t, 2, called)
}

func TestMemoryManagerTrackAndReleaseAreNonBlocking(t *testing.T) {
	m := NewMemoryManager(DefaultMemoryManagerConfig())
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			m.TrackAllocation(1)
			m.Release(1)
		}
		close(done)
	}()
	<-done
	require.Equal(t, int64(0), m.AllocatedMB())
}
