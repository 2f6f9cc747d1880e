package resource

import (
	"fmt"
	"sync"
)

// WasmInstance is a host-side handle to one WASM worker. The module
// itself is out of scope (per the spec's non-goals); only its pool and
// invocation contract live here.
type WasmInstance struct {
	WorkerID int
	InUse    bool
}

// WasmPool hands out one WASM instance per logical worker ID,
// generalized from the same checkout/slot idiom as NativePool but
// keyed by caller-supplied worker identity rather than FIFO handoff.
type WasmPool struct {
	mu        sync.Mutex
	instances map[int]*WasmInstance
}

func NewWasmPool(workerCount int) *WasmPool {
	instances := make(map[int]*WasmInstance, workerCount)
	for i := 0; i < workerCount; i++ {
		instances[i] = &WasmInstance{WorkerID: i}
	}
	return &WasmPool{instances: instances}
}

// Acquire claims the instance for workerID, creating one lazily if the
// pool was sized smaller than the caller's worker ID space.
func (wp *WasmPool) Acquire(workerID int) (*WasmInstance, error) {
	wp.mu.Lock()
	defer wp.mu.Unlock()

	inst, ok := wp.instances[workerID]
	if !ok {
		inst = &WasmInstance{WorkerID: workerID}
		wp.instances[workerID] = inst
	}
	if inst.InUse {
		return nil, fmt.Errorf("wasm instance for worker %d already in use", workerID)
	}
	inst.InUse = true
	return inst, nil
}

// Release frees a previously acquired instance.
func (wp *WasmPool) Release(inst *WasmInstance) {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	inst.InUse = false
}
