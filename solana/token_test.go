package solana

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

func buildTokenAccountData(mint, owner solana.PublicKey, amount uint64) []byte {
	out := make([]byte, 165)
	copy(out[0:32], mint.Bytes())
	copy(out[32:64], owner.Bytes())
	binary.LittleEndian.PutUint64(out[64:72], amount)
	return out
}

func TestDecodeTokenAccount(t *testing.T) {
	mint := testPubkey(1)
	owner := testPubkey(2)

	account, err := DecodeTokenAccount(buildTokenAccountData(mint, owner, 123_456))
	if err != nil {
		t.Fatalf("DecodeTokenAccount() error: %v", err)
	}
	if account.Mint != mint {
		t.Errorf("Mint = %s, want %s", account.Mint, mint)
	}
	if account.Owner != owner {
		t.Errorf("Owner = %s, want %s", account.Owner, owner)
	}
	if account.Amount != 123_456 {
		t.Errorf("Amount = %d, want 123456", account.Amount)
	}
}

func TestDecodeTokenAccountTruncated(t *testing.T) {
	if _, err := DecodeTokenAccount(make([]byte, 10)); err == nil {
		t.Fatal("DecodeTokenAccount() on a truncated buffer returned nil error")
	}
}

func TestGetMultipleTokenAccounts(t *testing.T) {
	mint := testPubkey(1)
	owner := testPubkey(2)
	vault := testPubkey(3)
	missing := testPubkey(4)

	stub := newStubClient()
	stub.multipleAccountsFn = func(accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error) {
		out := &rpc.GetMultipleAccountsResult{Value: make([]*rpc.Account, len(accounts))}
		for i, account := range accounts {
			if account == vault {
				out.Value[i] = &rpc.Account{
					Owner: solana.TokenProgramID,
					Data:  rpc.DataBytesOrJSONFromBytes(buildTokenAccountData(mint, owner, 555)),
				}
			}
		}
		return out, nil
	}

	list, err := GetMultipleTokenAccounts(context.Background(), stub, vault, missing)
	if err != nil {
		t.Fatalf("GetMultipleTokenAccounts() error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("returned %d entries, want 2", len(list))
	}
	if list[0] == nil || list[0].Amount != 555 {
		t.Fatalf("vault entry = %+v, want amount 555", list[0])
	}
	if list[0].Address != vault {
		t.Errorf("Address = %s, want %s", list[0].Address, vault)
	}
	if list[0].Program != solana.TokenProgramID {
		t.Errorf("Program = %s, want token program", list[0].Program)
	}
	if list[1] != nil {
		t.Fatalf("missing account entry = %+v, want nil", list[1])
	}
}
