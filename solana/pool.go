package solana

import (
	"sync/atomic"

	"github.com/gagliardetto/solana-go/rpc"
)

// DefaultRPCURL is used when no endpoint URLs are configured.
const DefaultRPCURL = rpc.MainNetBeta_RPC

// Endpoint is one RPC node. Stateless beyond its URL and client handle.
type Endpoint struct {
	url    string
	client Client
}

func NewEndpoint(url string, client Client) *Endpoint {
	return &Endpoint{url: url, client: client}
}

func (e *Endpoint) URL() string { return e.url }

func (e *Endpoint) RPC() Client { return e.client }

// Pool rotates over a fixed set of endpoints. Rotation is health-blind:
// a dead endpoint comes around again on every cycle.
type Pool struct {
	endpoints []*Endpoint
	cursor    atomic.Uint64
}

// NewPool dials one rpc.Client per URL. An empty list falls back to the
// default public endpoint so the pool is never empty.
func NewPool(urls []string) *Pool {
	if len(urls) == 0 {
		urls = []string{DefaultRPCURL}
	}
	endpoints := make([]*Endpoint, 0, len(urls))
	for _, url := range urls {
		endpoints = append(endpoints, NewEndpoint(url, rpc.New(url)))
	}
	return &Pool{endpoints: endpoints}
}

// NewPoolOf builds a pool from prepared endpoints, mainly for tests.
func NewPoolOf(endpoints ...*Endpoint) *Pool {
	if len(endpoints) == 0 {
		return NewPool(nil)
	}
	return &Pool{endpoints: endpoints}
}

// Next returns the endpoint at the cursor and advances it. The add is
// atomic; a concurrent double-use of one endpoint only skews load slightly.
func (p *Pool) Next() *Endpoint {
	n := p.cursor.Add(1) - 1
	return p.endpoints[n%uint64(len(p.endpoints))]
}

// All returns every endpoint for fan-out broadcast and polling.
func (p *Pool) All() []*Endpoint {
	out := make([]*Endpoint, len(p.endpoints))
	copy(out, p.endpoints)
	return out
}

func (p *Pool) Size() int { return len(p.endpoints) }
