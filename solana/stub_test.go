package solana

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// stubClient satisfies Client with function fields so each test overrides
// only the calls it cares about. Unset calls return benign empty results.
type stubClient struct {
	mu    sync.Mutex
	calls map[string]int

	recentFeesFn       func() ([]rpc.PriorizationFeeResult, error)
	accountInfoFn      func() (*rpc.GetAccountInfoResult, error)
	multipleAccountsFn func(accounts []solana.PublicKey) (*rpc.GetMultipleAccountsResult, error)
}

func newStubClient() *stubClient {
	return &stubClient{calls: map[string]int{}}
}

func (s *stubClient) count(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
}

func (s *stubClient) callCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[name]
}

func (s *stubClient) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	s.count("GetLatestBlockhash")
	return nil, errors.New("stub: no blockhash")
}

func (s *stubClient) GetBlockHeight(ctx context.Context, commitment rpc.CommitmentType) (uint64, error) {
	s.count("GetBlockHeight")
	return 0, nil
}

func (s *stubClient) GetAccountInfoWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetAccountInfoOpts) (*rpc.GetAccountInfoResult, error) {
	s.count("GetAccountInfoWithOpts")
	if s.accountInfoFn != nil {
		return s.accountInfoFn()
	}
	return nil, rpc.ErrNotFound
}

func (s *stubClient) GetMultipleAccountsWithOpts(ctx context.Context, accounts []solana.PublicKey, opts *rpc.GetMultipleAccountsOpts) (*rpc.GetMultipleAccountsResult, error) {
	s.count("GetMultipleAccountsWithOpts")
	if s.multipleAccountsFn != nil {
		return s.multipleAccountsFn(accounts)
	}
	return &rpc.GetMultipleAccountsResult{Value: make([]*rpc.Account, len(accounts))}, nil
}

func (s *stubClient) GetProgramAccountsWithOpts(ctx context.Context, publicKey solana.PublicKey, opts *rpc.GetProgramAccountsOpts) (rpc.GetProgramAccountsResult, error) {
	s.count("GetProgramAccountsWithOpts")
	return nil, nil
}

func (s *stubClient) GetRecentPrioritizationFees(ctx context.Context, accounts solana.PublicKeySlice) ([]rpc.PriorizationFeeResult, error) {
	s.count("GetRecentPrioritizationFees")
	if s.recentFeesFn != nil {
		return s.recentFeesFn()
	}
	return nil, nil
}

func (s *stubClient) SendTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	s.count("SendTransactionWithOpts")
	return solana.Signature{}, errors.New("stub: send not configured")
}

func (s *stubClient) SimulateTransactionWithOpts(ctx context.Context, transaction *solana.Transaction, opts *rpc.SimulateTransactionOpts) (*rpc.SimulateTransactionResponse, error) {
	s.count("SimulateTransactionWithOpts")
	return &rpc.SimulateTransactionResponse{}, nil
}

func (s *stubClient) GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	s.count("GetSignatureStatuses")
	return &rpc.GetSignatureStatusesResult{Value: make([]*rpc.SignatureStatusesResult, len(transactionSignatures))}, nil
}

func (s *stubClient) GetSignaturesForAddressWithOpts(ctx context.Context, account solana.PublicKey, opts *rpc.GetSignaturesForAddressOpts) ([]*rpc.TransactionSignature, error) {
	s.count("GetSignaturesForAddressWithOpts")
	return nil, nil
}

func (s *stubClient) GetTransaction(ctx context.Context, txSig solana.Signature, opts *rpc.GetTransactionOpts) (*rpc.GetTransactionResult, error) {
	s.count("GetTransaction")
	return nil, errors.New("stub: no transaction")
}

var _ Client = (*stubClient)(nil)
