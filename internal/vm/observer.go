package vm

import "time"

// Observer is notified after every dispatched instruction. It must not
// change VM state; it exists for profiling.
type Observer interface {
	OnStep(offset int, op Opcode, elapsed time.Duration)
}

// HotLoopObserver is optionally implemented by an Observer to be told when a
// loop exits after its header ran more than the hot threshold.
type HotLoopObserver interface {
	OnHotLoop(offset int, count uint64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(offset int, op Opcode, elapsed time.Duration)

func (f ObserverFunc) OnStep(offset int, op Opcode, elapsed time.Duration) {
	f(offset, op, elapsed)
}
