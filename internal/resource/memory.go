package resource

import (
	"sync"
	"sync/atomic"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/webforge/crawlkit/internal/obslog"
)

// MemoryManager tracks an atomic counter of megabytes allocated through
// TrackAllocation/Release and signals pressure against a configured
// limit, generalized from the teacher's ResourceMonitor (which sampled
// runtime.MemStats and gopsutil to gate new browser tabs) into a
// push-based counter any pool (browser, native, WASM, PDF) reports
// into directly instead of being polled.
type MemoryManager struct {
	limitMB             int64
	pressureThreshold   float64
	gcThreshold         float64
	allocatedMB         int64 // atomic
	cleanupHandlers     []func()
	cleanupMu           sync.Mutex
	systemTotalMemoryMB int64
}

type MemoryManagerConfig struct {
	GlobalMemoryLimitMB int
	PressureThreshold   float64 // default 0.8
	GCThreshold         float64 // default 0.9, must exceed PressureThreshold
}

func DefaultMemoryManagerConfig() MemoryManagerConfig {
	return MemoryManagerConfig{
		GlobalMemoryLimitMB: 2048,
		PressureThreshold:   0.8,
		GCThreshold:         0.9,
	}
}

func NewMemoryManager(cfg MemoryManagerConfig) *MemoryManager {
	total := int64(4096)
	if vm, err := mem.VirtualMemory(); err == nil {
		total = int64(vm.Total / (1024 * 1024))
	} else {
		obslog.Warnf("reading system memory failed, assuming %dMB: %v", total, err)
	}
	return &MemoryManager{
		limitMB:             int64(cfg.GlobalMemoryLimitMB),
		pressureThreshold:   cfg.PressureThreshold,
		gcThreshold:         cfg.GCThreshold,
		systemTotalMemoryMB: total,
	}
}

// TrackAllocation records deltaMB bytes (in MB) of newly allocated
// memory against the global counter. Non-blocking.
func (m *MemoryManager) TrackAllocation(deltaMB int64) {
	atomic.AddInt64(&m.allocatedMB, deltaMB)
}

// Release records deltaMB bytes (in MB) of freed memory. Non-blocking.
func (m *MemoryManager) Release(deltaMB int64) {
	atomic.AddInt64(&m.allocatedMB, -deltaMB)
}

// AllocatedMB returns the current tracked allocation.
func (m *MemoryManager) AllocatedMB() int64 {
	return atomic.LoadInt64(&m.allocatedMB)
}

// Pressure returns current_mb / limit_mb.
func (m *MemoryManager) Pressure() float64 {
	if m.limitMB <= 0 {
		return 0
	}
	return float64(m.AllocatedMB()) / float64(m.limitMB)
}

// IsUnderPressure reports whether pressure has crossed pressure_threshold.
func (m *MemoryManager) IsUnderPressure() bool {
	return m.Pressure() >= m.pressureThreshold
}

// ShouldTriggerGC reports whether pressure has crossed the higher GC
// threshold, at which point a caller should force a GC cycle.
func (m *MemoryManager) ShouldTriggerGC() bool {
	return m.Pressure() >= m.gcThreshold
}

// RegisterCleanupHandler adds an advisory cleanup callback (cache
// eviction, pool compaction) invoked by TriggerCleanup.
func (m *MemoryManager) RegisterCleanupHandler(fn func()) {
	m.cleanupMu.Lock()
	defer m.cleanupMu.Unlock()
	m.cleanupHandlers = append(m.cleanupHandlers, fn)
}

// TriggerCleanup runs every registered advisory handler. It does not
// itself free any tracked allocation; handlers are expected to call
// Release once they have actually freed memory.
func (m *MemoryManager) TriggerCleanup() {
	m.cleanupMu.Lock()
	handlers := make([]func(), len(m.cleanupHandlers))
	copy(handlers, m.cleanupHandlers)
	m.cleanupMu.Unlock()

	obslog.Debugf("memory pressure %.2f, running %d cleanup handlers", m.Pressure(), len(handlers))
	for _, fn := range handlers {
		fn()
	}
}

// PressureLevel buckets Pressure() into the teacher's four-tier ladder
// (normal/warning/critical/emergency), generalized from
// ResourceMonitor.GetMemoryStatus's MB-based thresholds into
// limit-relative bands.
type PressureLevel string

const (
	PressureNormal    PressureLevel = "normal"
	PressureWarning   PressureLevel = "warning"
	PressureCritical  PressureLevel = "critical"
	PressureEmergency PressureLevel = "emergency"
)

func (m *MemoryManager) Level() PressureLevel {
	p := m.Pressure()
	switch {
	case p >= 0.95:
		return PressureEmergency
	case p >= m.gcThreshold:
		return PressureCritical
	case p >= m.pressureThreshold:
		return PressureWarning
	default:
		return PressureNormal
	}
}

// SystemTotalMemoryMB reports the total physical memory detected at
// startup, used by pool sizing heuristics.
func (m *MemoryManager) SystemTotalMemoryMB() int64 {
	return m.systemTotalMemoryMB
}
