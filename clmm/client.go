package clmm

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	solanago "github.com/solatrade/clmm-go/solana"
)

// Client fetches and decodes on-chain CLMM state through the endpoint pool.
// The program targeted is the package-level ProgramID.
type Client struct {
	pool *solanago.Pool
	log  *zap.Logger
}

type Option func(*Client)

func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

func NewClient(pool *solanago.Pool, opts ...Option) *Client {
	c := &Client{
		pool: pool,
		log:  zap.NewNop(),
	}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// FetchPool reads and decodes one pool account.
func (c *Client) FetchPool(ctx context.Context, poolID solana.PublicKey) (*PoolState, error) {
	out, err := solanago.GetAccountInfo(ctx, c.pool.Next().RPC(), poolID)
	if err != nil {
		return nil, fmt.Errorf("fetch pool %s: %w", poolID, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("pool account %s not found", poolID)
	}

	state, err := DecodePool(out.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("pool %s: %w", poolID, err)
	}
	state.Address = poolID
	return state, nil
}

// FetchPosition reads and decodes one personal-position account.
func (c *Client) FetchPosition(ctx context.Context, position solana.PublicKey) (*PositionState, error) {
	out, err := solanago.GetAccountInfo(ctx, c.pool.Next().RPC(), position)
	if err != nil {
		return nil, fmt.Errorf("fetch position %s: %w", position, err)
	}
	if out == nil || out.Value == nil {
		return nil, fmt.Errorf("position account %s not found", position)
	}

	state, err := DecodePosition(out.Value.Data.GetBinary())
	if err != nil {
		return nil, fmt.Errorf("position %s: %w", position, err)
	}
	state.Address = position
	return state, nil
}

// FetchPositionByNft resolves the position PDA for an NFT mint and fetches it.
func (c *Client) FetchPositionByNft(ctx context.Context, nftMint solana.PublicKey) (*PositionState, error) {
	position, err := DerivePositionPDA(nftMint)
	if err != nil {
		return nil, fmt.Errorf("derive position for nft %s: %w", nftMint, err)
	}
	return c.FetchPosition(ctx, position)
}

// PositionsByPool lists every open position on a pool via a discriminator +
// pool-id memcmp filter.
func (c *Client) PositionsByPool(ctx context.Context, poolID solana.PublicKey) ([]*PositionState, error) {
	endpoint := c.pool.Next()
	opts := solanago.GenProgramAccountFilter(positionAccountName, poolID, poolPositionOffset)
	accounts, err := endpoint.RPC().GetProgramAccountsWithOpts(ctx, ProgramID, opts)
	if err != nil {
		return nil, fmt.Errorf("list positions for pool %s: %w", poolID, err)
	}

	positions := make([]*PositionState, 0, len(accounts))
	for _, item := range accounts {
		if item == nil || item.Account == nil {
			continue
		}
		state, err := DecodePosition(item.Account.Data.GetBinary())
		if err != nil {
			c.log.Warn("skipping undecodable position account",
				zap.String("pubkey", item.Pubkey.String()),
				zap.Error(err),
			)
			continue
		}
		state.Address = item.Pubkey
		positions = append(positions, state)
	}
	return positions, nil
}

// VaultBalances reads the pool's two vault token accounts, used to report
// reserve deltas around liquidity operations.
func (c *Client) VaultBalances(ctx context.Context, pool *PoolState) (amount0, amount1 uint64, err error) {
	vaults, err := solanago.GetMultipleTokenAccounts(ctx, c.pool.Next().RPC(), pool.TokenVault0, pool.TokenVault1)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch vaults for pool %s: %w", pool.Address, err)
	}
	if vaults[0] == nil || vaults[1] == nil {
		return 0, 0, fmt.Errorf("pool %s vault account missing", pool.Address)
	}
	return vaults[0].Amount, vaults[1].Amount, nil
}
