package solana

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/rpc"
)

// BlockRef pins a transaction to a validity window on chain.
type BlockRef struct {
	Blockhash            solana.Hash
	LastValidBlockHeight uint64
}

// GetBlockRef fetches the most recent blockhash and its expiry height.
func GetBlockRef(ctx context.Context, client Client) (BlockRef, error) {
	recent, err := client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return BlockRef{}, fmt.Errorf("get latest blockhash: %w", err)
	}
	return BlockRef{
		Blockhash:            recent.Value.Blockhash,
		LastValidBlockHeight: recent.Value.LastValidBlockHeight,
	}, nil
}

// AccountDiscriminator is the anchor account tag: sha256("account:"+name)[:8].
func AccountDiscriminator(name string) []byte {
	hash := sha256.Sum256([]byte("account:" + name))
	out := make([]byte, 8)
	copy(out, hash[:8])
	return out
}

// InstructionDiscriminator is the anchor instruction tag: sha256("global:"+name)[:8].
func InstructionDiscriminator(name string) []byte {
	hash := sha256.Sum256([]byte("global:" + name))
	out := make([]byte, 8)
	copy(out, hash[:8])
	return out
}

// GenProgramAccountFilter builds a getProgramAccounts filter matching the
// account discriminator, optionally narrowed by a pubkey at offset.
func GenProgramAccountFilter(name string, member solana.PublicKey, offset uint64) *rpc.GetProgramAccountsOpts {
	opt := &rpc.GetProgramAccountsOpts{
		Commitment: rpc.CommitmentFinalized,
		Encoding:   solana.EncodingBase64,
		Filters: []rpc.RPCFilter{
			{
				Memcmp: &rpc.RPCFilterMemcmp{
					Offset: 0,
					Bytes:  AccountDiscriminator(name),
				},
			},
		},
	}
	if member.Equals(solana.PublicKey{}) {
		return opt
	}
	opt.Filters = append(opt.Filters, rpc.RPCFilter{
		Memcmp: &rpc.RPCFilterMemcmp{
			Offset: offset,
			Bytes:  member[:],
		},
	})
	return opt
}

func GetAccountInfo(ctx context.Context, client Client, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return client.GetAccountInfoWithOpts(ctx, account, &rpc.GetAccountInfoOpts{Commitment: rpc.CommitmentFinalized})
}

func GetMultipleAccountInfo(ctx context.Context, client Client, accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
	return client.GetMultipleAccountsWithOpts(ctx, accounts, &rpc.GetMultipleAccountsOpts{Commitment: rpc.CommitmentFinalized, Encoding: solana.EncodingBase64})
}

// PrepareTokenATA resolves the owner's associated token account and appends a
// create instruction when the account does not exist yet.
func PrepareTokenATA(
	ctx context.Context,
	client Client,
	owner solana.PublicKey,
	tokenMint solana.PublicKey,
	payer solana.PublicKey,
	instructions *[]solana.Instruction,
) (solana.PublicKey, error) {
	tokenATA, _, err := solana.FindAssociatedTokenAddress(owner, tokenMint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	exists, err := GetAccountInfo(ctx, client, tokenATA)
	if err != nil && err != rpc.ErrNotFound {
		return solana.PublicKey{}, err
	}

	if exists == nil {
		ix := associatedtokenaccount.NewCreateInstruction(payer, owner, tokenMint).Build()
		*instructions = append(*instructions, ix)
	}
	return tokenATA, nil
}
