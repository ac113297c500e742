package solana

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

const (
	DefaultFeePercentile = 50
	DefaultFeeFloor      = uint64(1_000)      // micro-lamports per compute unit
	DefaultFeeCeiling    = uint64(10_000_000) // micro-lamports per compute unit
	DefaultFeeMultiplier = 1.5
	DefaultFeeTTL        = 10 * time.Second

	maxBoost = 8.0
)

// Watch-list of high-traffic programs whose recent prioritization fees track
// the market rate a trading transaction competes against.
var defaultFeeWatchlist = solana.PublicKeySlice{
	solana.MustPublicKeyFromBase58("CAMMCzo5YL8w4VFF8KVHrK22GGUsp5VTaW7grrKgrWqK"), // Raydium CLMM
	solana.MustPublicKeyFromBase58("675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"), // Raydium AMM v4
	solana.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"),  // Orca Whirlpool
	solana.MustPublicKeyFromBase58("JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4"),  // Jupiter v6
}

// FeeOracle estimates a market-rate priority fee per compute unit and owns
// the escalation state shared across concurrent lifecycle calls.
type FeeOracle struct {
	pool       *Pool
	watchlist  solana.PublicKeySlice
	percentile int
	floor      uint64
	ceiling    uint64
	multiplier float64
	ttl        time.Duration
	log        *zap.Logger

	// sampleMu serializes cache refreshes so a cold or expired cache costs
	// one RPC call no matter how many lifecycles ask at once.
	sampleMu sync.Mutex

	mu       sync.Mutex
	cached   uint64
	cachedAt time.Time
	// boost scales the base estimate; raised on expiry, halved on success.
	boost float64
}

type FeeOracleOption func(*FeeOracle)

func WithFeePercentile(p int) FeeOracleOption {
	return func(o *FeeOracle) { o.percentile = p }
}

func WithFeeBounds(floor, ceiling uint64) FeeOracleOption {
	return func(o *FeeOracle) { o.floor, o.ceiling = floor, ceiling }
}

func WithFeeMultiplier(m float64) FeeOracleOption {
	return func(o *FeeOracle) { o.multiplier = m }
}

func WithFeeTTL(ttl time.Duration) FeeOracleOption {
	return func(o *FeeOracle) { o.ttl = ttl }
}

func WithFeeWatchlist(accounts ...solana.PublicKey) FeeOracleOption {
	return func(o *FeeOracle) { o.watchlist = accounts }
}

func WithFeeLogger(log *zap.Logger) FeeOracleOption {
	return func(o *FeeOracle) { o.log = log }
}

func NewFeeOracle(pool *Pool, opts ...FeeOracleOption) *FeeOracle {
	o := &FeeOracle{
		pool:       pool,
		watchlist:  defaultFeeWatchlist,
		percentile: DefaultFeePercentile,
		floor:      DefaultFeeFloor,
		ceiling:    DefaultFeeCeiling,
		multiplier: DefaultFeeMultiplier,
		ttl:        DefaultFeeTTL,
		log:        zap.NewNop(),
		boost:      1.0,
	}
	for _, fn := range opts {
		fn(o)
	}
	if o.percentile < 0 {
		o.percentile = 0
	}
	if o.percentile > 100 {
		o.percentile = 100
	}
	return o
}

// Estimate returns the fee per compute unit to start an attempt with.
// A cached value younger than the TTL is served without network I/O;
// otherwise one endpoint is sampled and the cache refreshed. Network
// failures surface to the caller rather than yielding a stale zero.
func (o *FeeOracle) Estimate(ctx context.Context) (uint64, error) {
	if fee, ok := o.cachedEstimate(); ok {
		return fee, nil
	}

	o.sampleMu.Lock()
	defer o.sampleMu.Unlock()
	// Another caller may have refreshed the cache while we waited.
	if fee, ok := o.cachedEstimate(); ok {
		return fee, nil
	}

	endpoint := o.pool.Next()
	samples, err := endpoint.RPC().GetRecentPrioritizationFees(ctx, o.watchlist)
	if err != nil {
		return 0, fmt.Errorf("sample prioritization fees from %s: %w", endpoint.URL(), err)
	}

	fees := make([]uint64, 0, len(samples))
	for _, s := range samples {
		if s.PrioritizationFee == 0 || s.PrioritizationFee < o.floor {
			continue
		}
		fees = append(fees, s.PrioritizationFee)
	}

	base := o.floor
	if len(fees) > 0 {
		sort.Slice(fees, func(i, j int) bool { return fees[i] < fees[j] })
		idx := len(fees) * o.percentile / 100
		if idx >= len(fees) {
			idx = len(fees) - 1
		}
		base = fees[idx]
	}
	if base < o.floor {
		base = o.floor
	}

	o.mu.Lock()
	o.cached = base
	o.cachedAt = time.Now()
	fee := o.applyBoostLocked(base)
	o.mu.Unlock()

	o.log.Debug("priority fee sampled",
		zap.String("endpoint", endpoint.URL()),
		zap.Int("samples", len(fees)),
		zap.Uint64("fee", fee),
	)
	return fee, nil
}

// Escalate computes the fee for the next attempt after an expiry and
// raises the shared boost so later calls start higher.
func (o *FeeOracle) Escalate(previous uint64) uint64 {
	o.mu.Lock()
	o.boost = min(o.boost*o.multiplier, maxBoost)
	o.mu.Unlock()

	next := uint64(float64(previous) * o.multiplier)
	if next > o.ceiling {
		next = o.ceiling
	}
	return next
}

// Decay walks the boost back toward 1 after a confirmed transaction so
// future calls start cheaper again.
func (o *FeeOracle) Decay() {
	o.mu.Lock()
	o.boost = 1 + (o.boost-1)/2
	if o.boost < 1.01 {
		o.boost = 1
	}
	o.mu.Unlock()
}

func (o *FeeOracle) Ceiling() uint64 { return o.ceiling }

func (o *FeeOracle) cachedEstimate() (uint64, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cached > 0 && time.Since(o.cachedAt) < o.ttl {
		return o.applyBoostLocked(o.cached), true
	}
	return 0, false
}

func (o *FeeOracle) applyBoostLocked(base uint64) uint64 {
	fee := uint64(float64(base) * o.boost)
	if fee > o.ceiling {
		fee = o.ceiling
	}
	return fee
}
