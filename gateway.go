// Package clmmgo wires the gateway core together: an endpoint pool, a fee
// oracle, the transaction lifecycle engine, and the CLMM state client.
package clmmgo

import (
	"go.uber.org/zap"

	"github.com/solatrade/clmm-go/clmm"
	"github.com/solatrade/clmm-go/config"
	"github.com/solatrade/clmm-go/logging"
	"github.com/solatrade/clmm-go/sender"
	solanago "github.com/solatrade/clmm-go/solana"
)

type Gateway struct {
	Pool    *solanago.Pool
	Fees    *solanago.FeeOracle
	Sender  *sender.Engine
	Markets *clmm.Client
	Log     *zap.Logger
}

// New builds a gateway from configuration.
//
// Example:
//
//	cfg, _ := config.Load()
//	gw, _ := clmmgo.New(cfg)
//
//	pool, _ := gw.Markets.FetchPool(ctx, poolID)
//	receipt, _ := gw.Sender.Execute(ctx, sender.Request{Instructions: ixs, Signers: signers})
func New(cfg *config.Config) (*Gateway, error) {
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	pool := solanago.NewPool(cfg.RPCURLs)

	feeOpts := []solanago.FeeOracleOption{
		solanago.WithFeePercentile(cfg.FeePercentile),
		solanago.WithFeeBounds(cfg.FeeFloor, cfg.FeeCeiling),
		solanago.WithFeeMultiplier(cfg.FeeMultiplier),
		solanago.WithFeeTTL(cfg.FeeTTL),
		solanago.WithFeeLogger(log),
	}
	if len(cfg.FeeWatchlist) > 0 {
		feeOpts = append(feeOpts, solanago.WithFeeWatchlist(cfg.FeeWatchlist...))
	}
	fees := solanago.NewFeeOracle(pool, feeOpts...)

	engine := sender.New(pool, fees,
		sender.WithLogger(log),
		sender.WithComputeUnitLimit(cfg.ComputeUnitLimit),
		sender.WithMaxAttempts(cfg.MaxAttempts),
		sender.WithConfirmTimeout(cfg.ConfirmTimeout),
		sender.WithPollInterval(cfg.PollInterval),
	)

	return &Gateway{
		Pool:    pool,
		Fees:    fees,
		Sender:  engine,
		Markets: clmm.NewClient(pool, clmm.WithLogger(log)),
		Log:     log,
	}, nil
}
