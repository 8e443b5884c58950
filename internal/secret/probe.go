package secret

import "sync"

type probeState int

const (
	probeNotQueried probeState = iota
	probeQueried
)

// probe memoizes a single optional lookup. The loader passed to the first
// call of get wins; later loaders are ignored until reset.
type probe struct {
	mu    sync.Mutex
	state probeState
	value string
	found bool
}

func (p *probe) get(load func() (string, bool)) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state == probeNotQueried {
		p.value, p.found = load()
		p.state = probeQueried
	}
	return p.value, p.found
}

func (p *probe) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = probeNotQueried
	p.value = ""
	p.found = false
}
