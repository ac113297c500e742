// Package sender drives a transaction from instruction list to confirmed
// signature: assemble with compute-budget and priority-fee instructions,
// sign, broadcast to every endpoint, reconcile confirmation answers, and
// escalate the fee when the block-height window expires.
package sender

import (
	"context"
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	solanago "github.com/solatrade/clmm-go/solana"
)

const (
	DefaultComputeUnitLimit = uint32(400_000)
	DefaultMaxAttempts      = 4
	DefaultConfirmTimeout   = 3 * time.Second
	DefaultPollInterval     = 500 * time.Millisecond

	// Extra blocks past the declared valid-until height before an attempt
	// is treated as expired.
	DefaultExpiryGrace = uint64(50)
)

// Engine owns one endpoint pool and one fee oracle. Concurrent Execute calls
// are independent except for the fee learning shared through the oracle.
type Engine struct {
	pool *solanago.Pool
	fees *solanago.FeeOracle
	log  *zap.Logger

	commitment       rpc.CommitmentType
	computeUnitLimit uint32
	maxAttempts      int
	confirmTimeout   time.Duration
	pollInterval     time.Duration
	expiryGrace      uint64
}

type EngineOption func(*Engine)

func WithLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

func WithCommitment(commitment rpc.CommitmentType) EngineOption {
	return func(e *Engine) { e.commitment = commitment }
}

func WithComputeUnitLimit(limit uint32) EngineOption {
	return func(e *Engine) { e.computeUnitLimit = limit }
}

func WithMaxAttempts(n int) EngineOption {
	return func(e *Engine) { e.maxAttempts = n }
}

func WithConfirmTimeout(d time.Duration) EngineOption {
	return func(e *Engine) { e.confirmTimeout = d }
}

func WithPollInterval(d time.Duration) EngineOption {
	return func(e *Engine) { e.pollInterval = d }
}

func WithExpiryGrace(blocks uint64) EngineOption {
	return func(e *Engine) { e.expiryGrace = blocks }
}

func New(pool *solanago.Pool, fees *solanago.FeeOracle, opts ...EngineOption) *Engine {
	e := &Engine{
		pool:             pool,
		fees:             fees,
		log:              zap.NewNop(),
		commitment:       rpc.CommitmentConfirmed,
		computeUnitLimit: DefaultComputeUnitLimit,
		maxAttempts:      DefaultMaxAttempts,
		confirmTimeout:   DefaultConfirmTimeout,
		pollInterval:     DefaultPollInterval,
		expiryGrace:      DefaultExpiryGrace,
	}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

// Request is one transaction to land. The first signer is the fee payer.
type Request struct {
	Instructions     []solana.Instruction
	Signers          []solana.PrivateKey
	ComputeUnitLimit uint32
	// PriorityFee overrides the oracle estimate when non-zero,
	// in micro-lamports per compute unit.
	PriorityFee uint64
}

// Receipt is the terminal state of a confirmed transaction.
type Receipt struct {
	Signature   solana.Signature
	Slot        uint64
	Fee         uint64 // priority fee used, micro-lamports per compute unit
	Attempts    int
	Transaction *rpc.GetTransactionResult
}

// Execute runs the full lifecycle for one instruction list. It loops
// assemble -> sign -> broadcast -> confirm, escalating the priority fee on
// each block-height expiry, until confirmation, a fatal error, or the
// attempt budget runs out.
func (e *Engine) Execute(ctx context.Context, req Request) (*Receipt, error) {
	if len(req.Instructions) == 0 {
		return nil, fmt.Errorf("sender: empty instruction list")
	}
	if len(req.Signers) == 0 {
		return nil, fmt.Errorf("sender: no signers")
	}
	payer := req.Signers[0].PublicKey()
	instructions := solanago.MergeInstructions(req.Instructions)

	fee := req.PriorityFee
	if fee == 0 {
		estimated, err := e.fees.Estimate(ctx)
		if err != nil {
			return nil, fmt.Errorf("sender: estimate priority fee: %w", err)
		}
		fee = estimated
	}

	var lastSig solana.Signature
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		if attempt > 1 {
			fee = e.fees.Escalate(fee)
		}

		ref, err := solanago.GetBlockRef(ctx, e.pool.Next().RPC())
		if err != nil {
			return nil, fmt.Errorf("sender: attempt %d: %w", attempt, err)
		}

		tx, err := e.assemble(instructions, req, payer, fee, ref)
		if err != nil {
			return nil, fmt.Errorf("sender: attempt %d: %w", attempt, err)
		}

		sig, err := e.broadcast(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("sender: attempt %d: %w", attempt, err)
		}
		lastSig = sig

		e.log.Debug("transaction broadcast",
			zap.Stringer("signature", sig),
			zap.Int("attempt", attempt),
			zap.Uint64("priority_fee", fee),
			zap.Uint64("valid_until", ref.LastValidBlockHeight),
		)

		result, err := e.confirm(ctx, sig, payer, ref.LastValidBlockHeight)
		if err != nil {
			return nil, err
		}

		switch result.outcome {
		case pollConfirmed:
			e.fees.Decay()
			receipt := &Receipt{
				Signature: sig,
				Slot:      result.slot,
				Fee:       fee,
				Attempts:  attempt,
			}
			receipt.Transaction = e.fetchDetails(ctx, sig)
			e.log.Info("transaction confirmed",
				zap.Stringer("signature", sig),
				zap.Int("attempts", attempt),
				zap.Uint64("priority_fee", fee),
			)
			return receipt, nil

		case pollFailed:
			return nil, &ExecutionError{Signature: sig, Attempt: attempt, Payload: result.execErr}
		}

		e.log.Warn("block-height window expired, escalating",
			zap.Stringer("signature", sig),
			zap.Int("attempt", attempt),
			zap.Uint64("priority_fee", fee),
		)
	}

	return nil, &ExpiredError{Signature: lastSig, Attempts: e.maxAttempts, LastFee: fee}
}

// Simulate runs the transaction through one endpoint's simulator without
// broadcasting. Optional pre-check; Execute itself skips preflight.
func (e *Engine) Simulate(ctx context.Context, req Request) (*rpc.SimulateTransactionResponse, error) {
	if len(req.Signers) == 0 {
		return nil, fmt.Errorf("sender: no signers")
	}
	payer := req.Signers[0].PublicKey()

	ref, err := solanago.GetBlockRef(ctx, e.pool.Next().RPC())
	if err != nil {
		return nil, fmt.Errorf("sender: simulate: %w", err)
	}
	tx, err := e.assemble(solanago.MergeInstructions(req.Instructions), req, payer, req.PriorityFee, ref)
	if err != nil {
		return nil, fmt.Errorf("sender: simulate: %w", err)
	}

	return e.pool.Next().RPC().SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify:  false,
		Commitment: e.commitment,
	})
}

func (e *Engine) assemble(
	instructions []solana.Instruction,
	req Request,
	payer solana.PublicKey,
	fee uint64,
	ref solanago.BlockRef,
) (*solana.Transaction, error) {
	limit := req.ComputeUnitLimit
	if limit == 0 {
		limit = e.computeUnitLimit
	}

	list := make([]solana.Instruction, 0, len(instructions)+2)
	limitIx, err := computebudget.NewSetComputeUnitLimitInstruction(limit).ValidateAndBuild()
	if err != nil {
		return nil, fmt.Errorf("build compute unit limit instruction: %w", err)
	}
	list = append(list, limitIx)
	if fee > 0 {
		priceIx, err := computebudget.NewSetComputeUnitPriceInstruction(fee).ValidateAndBuild()
		if err != nil {
			return nil, fmt.Errorf("build compute unit price instruction: %w", err)
		}
		list = append(list, priceIx)
	}
	list = append(list, instructions...)

	tx, err := solana.NewTransaction(list, ref.Blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, fmt.Errorf("build transaction: %w", err)
	}

	if _, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		for i := range req.Signers {
			if req.Signers[i].PublicKey().Equals(key) {
				return &req.Signers[i]
			}
		}
		return nil
	}); err != nil {
		return nil, fmt.Errorf("sign transaction: %w", err)
	}
	return tx, nil
}

// broadcast submits the signed transaction to every endpoint concurrently.
// One acceptance is enough to proceed; divergent accepted signatures abort.
func (e *Engine) broadcast(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	endpoints := e.pool.All()

	type sendResult struct {
		url string
		sig solana.Signature
		err error
	}
	results := make(chan sendResult, len(endpoints))
	for _, endpoint := range endpoints {
		go func(endpoint *solanago.Endpoint) {
			sig, err := endpoint.RPC().SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
				SkipPreflight:       true,
				PreflightCommitment: e.commitment,
			})
			results <- sendResult{url: endpoint.URL(), sig: sig, err: err}
		}(endpoint)
	}

	var (
		accepted []solana.Signature
		firstErr error
	)
	for range endpoints {
		r := <-results
		if r.err != nil {
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", r.url, r.err)
			}
			e.log.Debug("endpoint rejected broadcast", zap.String("endpoint", r.url), zap.Error(r.err))
			continue
		}
		accepted = append(accepted, r.sig)
	}

	if len(accepted) == 0 {
		return solana.Signature{}, fmt.Errorf("broadcast rejected by all %d endpoints: %w", len(endpoints), firstErr)
	}
	for _, sig := range accepted[1:] {
		if sig != accepted[0] {
			return solana.Signature{}, fmt.Errorf("%w: %s vs %s", ErrSignatureMismatch, accepted[0], sig)
		}
	}
	return accepted[0], nil
}

type pollOutcome int

const (
	pollPending pollOutcome = iota
	pollConfirmed
	pollFailed
	pollExpired
)

type confirmResult struct {
	outcome pollOutcome
	slot    uint64
	execErr any
}

// confirm polls every endpoint for the signature's status and for its
// appearance in the fee payer's recent history until any endpoint reports a
// terminal answer or the chain passes the validity window.
func (e *Engine) confirm(
	ctx context.Context,
	sig solana.Signature,
	payer solana.PublicKey,
	lastValidBlockHeight uint64,
) (confirmResult, error) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return confirmResult{}, ctx.Err()
		case <-ticker.C:
		}

		roundCtx, cancel := context.WithTimeout(ctx, e.confirmTimeout)
		result := e.pollRound(roundCtx, sig, payer)
		cancel()
		if result.outcome == pollConfirmed || result.outcome == pollFailed {
			return result, nil
		}

		height, err := e.pool.Next().RPC().GetBlockHeight(ctx, e.commitment)
		if err != nil {
			e.log.Debug("block height check failed", zap.Error(err))
			continue
		}
		if height > lastValidBlockHeight+e.expiryGrace {
			return confirmResult{outcome: pollExpired}, nil
		}
	}
}

// pollRound fans both confirmation queries out to every endpoint and takes
// the first terminal answer. The round context stops the losing branches.
func (e *Engine) pollRound(ctx context.Context, sig solana.Signature, payer solana.PublicKey) confirmResult {
	endpoints := e.pool.All()
	results := make(chan confirmResult, 2*len(endpoints))

	for _, endpoint := range endpoints {
		client := endpoint.RPC()
		go func() {
			results <- e.querySignatureStatus(ctx, client, sig)
		}()
		go func() {
			results <- e.queryPayerHistory(ctx, client, sig, payer)
		}()
	}

	pending := 2 * len(endpoints)
	for ; pending > 0; pending-- {
		select {
		case <-ctx.Done():
			return confirmResult{outcome: pollPending}
		case r := <-results:
			if r.outcome == pollConfirmed || r.outcome == pollFailed {
				return r
			}
		}
	}
	return confirmResult{outcome: pollPending}
}

func (e *Engine) querySignatureStatus(ctx context.Context, client solanago.Client, sig solana.Signature) confirmResult {
	out, err := client.GetSignatureStatuses(ctx, true, sig)
	if err != nil || out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return confirmResult{outcome: pollPending}
	}
	status := out.Value[0]
	if status.Err != nil {
		return confirmResult{outcome: pollFailed, execErr: status.Err}
	}
	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
		return confirmResult{outcome: pollConfirmed, slot: status.Slot}
	}
	return confirmResult{outcome: pollPending}
}

func (e *Engine) queryPayerHistory(ctx context.Context, client solanago.Client, sig solana.Signature, payer solana.PublicKey) confirmResult {
	limit := 32
	entries, err := client.GetSignaturesForAddressWithOpts(ctx, payer, &rpc.GetSignaturesForAddressOpts{
		Limit:      &limit,
		Commitment: e.commitment,
	})
	if err != nil {
		return confirmResult{outcome: pollPending}
	}
	for _, entry := range entries {
		if entry == nil || entry.Signature != sig {
			continue
		}
		if entry.Err != nil {
			return confirmResult{outcome: pollFailed, execErr: entry.Err}
		}
		return confirmResult{outcome: pollConfirmed, slot: entry.Slot}
	}
	return confirmResult{outcome: pollPending}
}

// fetchDetails is best-effort: a confirmed signature with unfetchable detail
// still yields a usable receipt.
func (e *Engine) fetchDetails(ctx context.Context, sig solana.Signature) *rpc.GetTransactionResult {
	maxVersion := uint64(0)
	out, err := e.pool.Next().RPC().GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Encoding:                       solana.EncodingBase64,
		Commitment:                     e.commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		e.log.Warn("confirmed transaction detail fetch failed", zap.Stringer("signature", sig), zap.Error(err))
		return nil
	}
	return out
}
