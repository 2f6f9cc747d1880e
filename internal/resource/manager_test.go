package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/webforge/crawlkit/internal/models"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	return &Manager{
		RateLimiter: NewRateLimiter(DefaultRateLimiterConfig()),
		Memory:      NewMemoryManager(MemoryManagerConfig{GlobalMemoryLimitMB: 1000, PressureThreshold: 0.8, GCThreshold: 0.9}),
		Native:      NewNativePool(DefaultNativePoolConfig()),
		Wasm:        NewWasmPool(2),
		PDF:         NewPDFSemaphore(2),
	}
}

func TestAcquirePDFResourcesSucceedsUnderCapacity(t *testing.T) {
	m := newTestManager(t)

	guard, err := m.AcquirePDFResources(context.Background(), time.Second)
	require.NoError(t, err)
	require.NotNil(t, guard)

	require.Equal(t, int64(pdfMemoryUnitMB), m.Memory.AllocatedMB())
	guard.Release()
	require.Equal(t, int64(0), m.Memory.AllocatedMB())
}

func TestAcquirePDFResourcesRejectedUnderMemoryPressure(t *testing.T) {
	m := newTestManager(t)
	m.Memory.TrackAllocation(900)

	_, err := m.AcquirePDFResources(context.Background(), time.Second)
	require.Error(t, err)
	require.Equal(t, models.ErrMemoryPressure, models.KindOf(err))
}

func TestAcquirePDFResourcesExhaustsSemaphore(t *testing.T) {
	m := newTestManager(t)
	m.PDF = NewPDFSemaphore(1)

	g1, err := m.AcquirePDFResources(context.Background(), time.Second)
	require.NoError(t, err)

	_, err = m.AcquirePDFResources(context.Background(), 10*time.Millisecond)
	require.Error(t, err)
	require.Equal(t, models.ErrResourceExhausted, models.KindOf(err))

	g1.Release()
}

func TestCleanupOnTimeoutRunsHandlersAndCountsCalls(t *testing.T) {
	m := newTestManager(t)
	called := false
	m.Memory.RegisterCleanupHandler(func() { called = true })

	m.CleanupOnTimeout("render")

	require.True(t, called)
	require.Equal(t, 1, m.TimeoutCount())
}
