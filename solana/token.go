package solana

import (
	"context"
	"fmt"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// TokenAccount is the decoded view of an SPL token account, used to read
// pool vault balances around liquidity operations.
type TokenAccount struct {
	Address solana.PublicKey
	Mint    solana.PublicKey
	Owner   solana.PublicKey
	Amount  uint64
	Program solana.PublicKey // owning token program
}

// https://github.com/solana-labs/solana-program-library/blob/master/token/js/src/state/account.ts
type tokenAccountLayout struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       solana.PublicKey
}

// DecodeTokenAccount decodes the fixed SPL token-account layout.
func DecodeTokenAccount(data []byte) (*TokenAccount, error) {
	raw := &tokenAccountLayout{}
	if err := binary.NewBinDecoder(data).Decode(raw); err != nil {
		return nil, fmt.Errorf("decode token account (%d bytes): %w", len(data), err)
	}
	return &TokenAccount{
		Mint:   raw.Mint,
		Owner:  raw.Owner,
		Amount: raw.Amount,
	}, nil
}

// GetMultipleTokenAccounts fetches and decodes several token accounts in one
// round trip. Missing accounts yield nil entries.
func GetMultipleTokenAccounts(ctx context.Context, client Client, accounts ...solana.PublicKey) ([]*TokenAccount, error) {
	outs, err := GetMultipleAccountInfo(ctx, client, accounts)
	if err != nil {
		return nil, err
	}
	list := make([]*TokenAccount, len(outs.Value))
	for i, out := range outs.Value {
		if out == nil {
			continue
		}
		account, err := DecodeTokenAccount(out.Data.GetBinary())
		if err != nil {
			return nil, err
		}
		account.Address = accounts[i]
		account.Program = out.Owner
		list[i] = account
	}
	return list, nil
}
