package evaluator

import "sync/atomic"

// Interrupt is a cancellation flag shared between a pipeline and whoever
// may stop it. Safe for concurrent use.
type Interrupt struct {
	flag atomic.Bool
}

// NewInterrupt creates an unset interrupt flag
func NewInterrupt() *Interrupt {
	return &Interrupt{}
}

// Set trips the flag. Pipelines polling it stop yielding elements.
func (i *Interrupt) Set() {
	i.flag.Store(true)
}

// IsSet reports whether the flag has been tripped
func (i *Interrupt) IsSet() bool {
	if i == nil {
		return false
	}
	return i.flag.Load()
}

// Pipeline is a lazy stream of objects. Elements are produced one at a time
// by the next function; nothing downstream runs until Next is called.
type Pipeline struct {
	next      func() (Object, bool)
	interrupt *Interrupt
}

// NewPipeline wraps a producer function into a pipeline. The producer
// returns false when the stream is exhausted.
func NewPipeline(next func() (Object, bool), interrupt *Interrupt) *Pipeline {
	return &Pipeline{next: next, interrupt: interrupt}
}

// PipelineFromSlice creates a pipeline yielding the given elements in order
func PipelineFromSlice(elements []Object, interrupt *Interrupt) *Pipeline {
	i := 0
	return NewPipeline(func() (Object, bool) {
		if i >= len(elements) {
			return nil, false
		}
		elem := elements[i]
		i++
		return elem, true
	}, interrupt)
}

// Next yields the next element. The interrupt flag is polled before each
// element; once set the stream ends cleanly.
func (p *Pipeline) Next() (Object, bool) {
	if p.interrupt.IsSet() {
		return nil, false
	}
	return p.next()
}

// Map returns a lazy pipeline applying fn to each element
func (p *Pipeline) Map(fn func(Object) Object) *Pipeline {
	return NewPipeline(func() (Object, bool) {
		elem, ok := p.Next()
		if !ok {
			return nil, false
		}
		return fn(elem), true
	}, p.interrupt)
}

// Collect drains the pipeline into a slice
func (p *Pipeline) Collect() []Object {
	out := []Object{}
	for {
		elem, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, elem)
	}
}
