package clmm

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	solanago "github.com/solatrade/clmm-go/solana"
)

// stubClient serves account data from in-memory maps.
type stubClient struct {
	accounts        map[solana.PublicKey][]byte
	programAccounts rpc.GetProgramAccountsResult
}

func (s *stubClient) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	data, ok := s.accounts[account]
	if !ok {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(data)},
	}, nil
}

func (s *stubClient) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error) {
	out := &rpc.GetMultipleAccountsResult{Value: make([]*rpc.Account, len(accounts))}
	for i, account := range accounts {
		if data, ok := s.accounts[account]; ok {
			out.Value[i] = &rpc.Account{
				Owner: solana.TokenProgramID,
				Data:  rpc.DataBytesOrJSONFromBytes(data),
			}
		}
	}
	return out, nil
}

func (s *stubClient) GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	return s.programAccounts, nil
}

func (s *stubClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	return nil, errors.New("stub")
}

func (s *stubClient) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	return 0, errors.New("stub")
}

func (s *stubClient) GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error) {
	return nil, errors.New("stub")
}

func (s *stubClient) SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	return solana.Signature{}, errors.New("stub")
}

func (s *stubClient) SimulateTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error) {
	return nil, errors.New("stub")
}

func (s *stubClient) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	return nil, errors.New("stub")
}

func (s *stubClient) GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	return nil, errors.New("stub")
}

func (s *stubClient) GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	return nil, errors.New("stub")
}

var _ solanago.Client = (*stubClient)(nil)

func newStubChain() (*stubClient, *Client) {
	stub := &stubClient{accounts: map[solana.PublicKey][]byte{}}
	pool := solanago.NewPoolOf(solanago.NewEndpoint("stub://a", stub))
	return stub, NewClient(pool)
}

func buildTokenAccount(mint, owner solana.PublicKey, amount uint64) []byte {
	b := &accountBuilder{}
	b.pubkey(mint).pubkey(owner).u64(amount).
		pad(4 + 32 + 1 + 4 + 8 + 8 + 4 + 32)
	return b.bytes()
}

func TestClientFetchPool(t *testing.T) {
	stub, client := newStubChain()
	poolID := testKey(100)
	stub.accounts[poolID] = buildPoolAccount()

	pool, err := client.FetchPool(context.Background(), poolID)
	if err != nil {
		t.Fatalf("FetchPool() error: %v", err)
	}
	if pool.Address != poolID {
		t.Errorf("Address = %s, want %s", pool.Address, poolID)
	}
	if pool.TickSpacing != 60 {
		t.Errorf("TickSpacing = %d, want 60", pool.TickSpacing)
	}
}

func TestClientFetchPoolNotFound(t *testing.T) {
	_, client := newStubChain()
	if _, err := client.FetchPool(context.Background(), testKey(100)); err == nil {
		t.Fatal("FetchPool() for a missing account returned nil error")
	}
}

func TestClientFetchPositionByNft(t *testing.T) {
	stub, client := newStubChain()

	nftMint := testKey(40) // matches the synthetic position's nft mint
	pda, err := DerivePositionPDA(nftMint)
	if err != nil {
		t.Fatalf("DerivePositionPDA() error: %v", err)
	}
	stub.accounts[pda] = buildPositionAccount(testKey(50))

	pos, err := client.FetchPositionByNft(context.Background(), nftMint)
	if err != nil {
		t.Fatalf("FetchPositionByNft() error: %v", err)
	}
	if pos.Address != pda {
		t.Errorf("Address = %s, want %s", pos.Address, pda)
	}
	if pos.NftMint != nftMint {
		t.Errorf("NftMint = %s, want %s", pos.NftMint, nftMint)
	}
}

func TestClientPositionsByPool(t *testing.T) {
	stub, client := newStubChain()
	poolID := testKey(50)

	good := buildPositionAccount(poolID)
	stub.programAccounts = rpc.GetProgramAccountsResult{
		{
			Pubkey:  testKey(70),
			Account: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(good)},
		},
		{
			// Truncated record, skipped rather than failing the listing.
			Pubkey:  testKey(71),
			Account: &rpc.Account{Data: rpc.DataBytesOrJSONFromBytes(good[:40])},
		},
	}

	positions, err := client.PositionsByPool(context.Background(), poolID)
	if err != nil {
		t.Fatalf("PositionsByPool() error: %v", err)
	}
	if len(positions) != 1 {
		t.Fatalf("PositionsByPool() returned %d positions, want 1", len(positions))
	}
	if positions[0].Address != testKey(70) {
		t.Errorf("Address = %s, want %s", positions[0].Address, testKey(70))
	}
	if positions[0].PoolID != poolID {
		t.Errorf("PoolID = %s, want %s", positions[0].PoolID, poolID)
	}
}

func TestClientVaultBalances(t *testing.T) {
	stub, client := newStubChain()

	pool, err := DecodePool(buildPoolAccount())
	if err != nil {
		t.Fatalf("DecodePool() error: %v", err)
	}
	stub.accounts[pool.TokenVault0] = buildTokenAccount(pool.TokenMint0, pool.Address, 1_000)
	stub.accounts[pool.TokenVault1] = buildTokenAccount(pool.TokenMint1, pool.Address, 2_000)

	amount0, amount1, err := client.VaultBalances(context.Background(), pool)
	if err != nil {
		t.Fatalf("VaultBalances() error: %v", err)
	}
	if amount0 != 1_000 || amount1 != 2_000 {
		t.Fatalf("VaultBalances() = %d/%d, want 1000/2000", amount0, amount1)
	}
}

func TestClientVaultBalancesMissingVault(t *testing.T) {
	stub, client := newStubChain()

	pool, err := DecodePool(buildPoolAccount())
	if err != nil {
		t.Fatalf("DecodePool() error: %v", err)
	}
	stub.accounts[pool.TokenVault0] = buildTokenAccount(pool.TokenMint0, pool.Address, 1_000)

	if _, _, err := client.VaultBalances(context.Background(), pool); err == nil {
		t.Fatal("VaultBalances() with a missing vault returned nil error")
	}
}
