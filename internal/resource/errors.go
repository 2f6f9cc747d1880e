package resource

import "errors"

// ErrExhausted is returned by a pool's Checkout when the acquisition
// timeout elapses with no handle available.
var ErrExhausted = errors.New("resource pool exhausted")

// ErrCircuitOpen is returned by Checkout when the pool's circuit
// breaker is tripped and short-circuiting new acquisitions.
var ErrCircuitOpen = errors.New("resource pool circuit open")
