package voxelizer

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Profiler keeps the last duration of named scopes and running counters.
// Display order is first use.
type Profiler struct {
	mu     sync.Mutex
	now    func() time.Time
	scopes map[string]time.Duration
	starts map[string]time.Time
	counts map[string]int
	order  []string
}

func NewProfiler() *Profiler {
	return &Profiler{
		now:    time.Now,
		scopes: make(map[string]time.Duration),
		starts: make(map[string]time.Time),
		counts: make(map[string]int),
	}
}

func (p *Profiler) BeginScope(name string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.starts[name] = p.now()
	if !slices.Contains(p.order, name) {
		p.order = append(p.order, name)
	}
}

func (p *Profiler) EndScope(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	start, ok := p.starts[name]
	if !ok {
		return 0
	}
	d := p.now().Sub(start)
	p.scopes[name] = d
	delete(p.starts, name)
	return d
}

func (p *Profiler) Scope(name string) time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.scopes[name]
}

func (p *Profiler) Add(name string, n int) {
	p.mu.Lock()
	p.counts[name] += n
	p.mu.Unlock()
}

func (p *Profiler) SetCount(name string, n int) {
	p.mu.Lock()
	p.counts[name] = n
	p.mu.Unlock()
}

func (p *Profiler) Count(name string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[name]
}

// Reset zeroes timings and keeps counters.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for k := range p.scopes {
		p.scopes[k] = 0
	}
}

func (p *Profiler) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("timings:")
	for _, name := range p.order {
		fmt.Fprintf(&sb, " %s=%.2fms", name, float64(p.scopes[name].Microseconds())/1000.0)
	}
	keys := make([]string, 0, len(p.counts))
	for k := range p.counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	sb.WriteString(" counts:")
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%d", k, p.counts[k])
	}
	return sb.String()
}
