// Package analyzer profiles bytecode execution. It observes a running VM and
// classifies hot instruction offsets; it never changes program behaviour.
package analyzer

import (
	"sort"
	"sync"
	"time"

	"github.com/tliron/commonlog"

	"github.com/Z2ZATL/Luma-CL/internal/config"
	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

var log = commonlog.GetLogger("luma.analyzer")

// Hotspot aggregates the samples recorded for one instruction offset.
type Hotspot struct {
	Offset       int
	Count        uint64
	TotalTime    time.Duration
	AverageTime  time.Duration
	LastExecuted time.Time
}

// CompiledFunction records an offset that was marked as compiled.
// No native code is produced; the record only feeds Statistics.
type CompiledFunction struct {
	Offset          int
	NativeAddress   uintptr
	CompilationTime time.Duration
	SpeedupFactor   float64
}

// Statistics is a read-only summary of the analyzer state.
type Statistics struct {
	TotalHotspots   int
	HotCount        int
	CompiledCount   int
	TotalExecutions uint64
	AverageSpeedup  float64
	JITThreshold    uint64
	HotLoops        int
}

// PerformanceAnalyzer implements vm.Observer and vm.HotLoopObserver.
type PerformanceAnalyzer struct {
	mu           sync.Mutex
	hotspots     map[int]*Hotspot
	compiled     map[int]*CompiledFunction
	hotLoops     map[int]uint64
	hotThreshold uint64
	jitThreshold uint64
}

var _ vm.HotLoopObserver = (*PerformanceAnalyzer)(nil)

// New creates an analyzer with the default thresholds.
func New() *PerformanceAnalyzer {
	return &PerformanceAnalyzer{
		hotspots:     make(map[int]*Hotspot),
		compiled:     make(map[int]*CompiledFunction),
		hotLoops:     make(map[int]uint64),
		hotThreshold: config.HotLoopDefault,
		jitThreshold: config.JITThreshold,
	}
}

// OnStep records one dispatch of the instruction at offset.
func (a *PerformanceAnalyzer) OnStep(offset int, op vm.Opcode, elapsed time.Duration) {
	a.RecordExecution(offset, elapsed)
}

// OnHotLoop records a loop reported hot by the VM.
func (a *PerformanceAnalyzer) OnHotLoop(offset int, count uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, seen := a.hotLoops[offset]; !seen {
		log.Infof("loop at instruction %d is hot after %d iterations", offset, count)
	}
	a.hotLoops[offset] = count
}

// RecordExecution adds a sample for offset.
func (a *PerformanceAnalyzer) RecordExecution(offset int, elapsed time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()

	h, ok := a.hotspots[offset]
	if !ok {
		h = &Hotspot{Offset: offset}
		a.hotspots[offset] = h
	}
	h.Count++
	h.TotalTime += elapsed
	h.AverageTime = h.TotalTime / time.Duration(h.Count)
	h.LastExecuted = time.Now()
}

// IsHot reports whether offset reached the hot threshold.
func (a *PerformanceAnalyzer) IsHot(offset int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.hotspots[offset]
	return ok && h.Count >= a.hotThreshold
}

// ShouldJITCompile reports whether offset reached the JIT threshold and was
// not marked compiled yet.
func (a *PerformanceAnalyzer) ShouldJITCompile(offset int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.shouldCompile(offset)
}

func (a *PerformanceAnalyzer) shouldCompile(offset int) bool {
	h, ok := a.hotspots[offset]
	if !ok || h.Count < a.jitThreshold {
		return false
	}
	_, done := a.compiled[offset]
	return !done
}

// MarkCompiled records offset as compiled with a neutral speedup of 1.
// There is no native backend yet, so only tests call it and
// Statistics.CompiledCount stays 0 in normal runs.
func (a *PerformanceAnalyzer) MarkCompiled(offset int, nativeAddress uintptr, compilationTime time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.compiled[offset] = &CompiledFunction{
		Offset:          offset,
		NativeAddress:   nativeAddress,
		CompilationTime: compilationTime,
		SpeedupFactor:   1.0,
	}
}

// CompiledFunction returns a copy of the record for offset.
func (a *PerformanceAnalyzer) CompiledFunction(offset int) (CompiledFunction, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	cf, ok := a.compiled[offset]
	if !ok {
		return CompiledFunction{}, false
	}
	return *cf, true
}

// UpdateSpeedup sets the measured speedup of a compiled offset. Unknown
// offsets are ignored. Like MarkCompiled it has no caller outside tests.
func (a *PerformanceAnalyzer) UpdateSpeedup(offset int, speedup float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if cf, ok := a.compiled[offset]; ok {
		cf.SpeedupFactor = speedup
	}
}

// Hotspots returns copies of all samples, most executed first.
func (a *PerformanceAnalyzer) Hotspots() []Hotspot {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Hotspot, 0, len(a.hotspots))
	for _, h := range a.hotspots {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Offset < out[j].Offset
	})
	return out
}

// CompilationCandidates returns the offsets ShouldJITCompile accepts, in
// ascending order.
func (a *PerformanceAnalyzer) CompilationCandidates() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []int
	for offset := range a.hotspots {
		if a.shouldCompile(offset) {
			out = append(out, offset)
		}
	}
	sort.Ints(out)
	return out
}

// HotLoops returns the loop header offsets reported hot, in ascending order.
func (a *PerformanceAnalyzer) HotLoops() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]int, 0, len(a.hotLoops))
	for offset := range a.hotLoops {
		out = append(out, offset)
	}
	sort.Ints(out)
	return out
}

func (a *PerformanceAnalyzer) Statistics() Statistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := Statistics{
		TotalHotspots:  len(a.hotspots),
		CompiledCount:  len(a.compiled),
		AverageSpeedup: 1.0,
		JITThreshold:   a.jitThreshold,
		HotLoops:       len(a.hotLoops),
	}
	for _, h := range a.hotspots {
		s.TotalExecutions += h.Count
		if h.Count >= a.hotThreshold {
			s.HotCount++
		}
	}
	if len(a.compiled) > 0 {
		var sum float64
		for _, cf := range a.compiled {
			sum += cf.SpeedupFactor
		}
		s.AverageSpeedup = sum / float64(len(a.compiled))
	}
	return s
}

// Reset drops all samples and compiled records. Thresholds are kept.
func (a *PerformanceAnalyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.hotspots = make(map[int]*Hotspot)
	a.compiled = make(map[int]*CompiledFunction)
	a.hotLoops = make(map[int]uint64)
}

func (a *PerformanceAnalyzer) SetHotThreshold(n uint64) {
	a.mu.Lock()
	a.hotThreshold = n
	a.mu.Unlock()
}

func (a *PerformanceAnalyzer) SetJITThreshold(n uint64) {
	a.mu.Lock()
	a.jitThreshold = n
	a.mu.Unlock()
}

// HotThreshold returns the current hot threshold.
func (a *PerformanceAnalyzer) HotThreshold() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.hotThreshold
}
