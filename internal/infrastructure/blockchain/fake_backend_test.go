package blockchain

import (
	"bytes"
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"soulbound.backend/internal/config"
	"soulbound.backend/internal/infrastructure/metrics"
)

const (
	testContract = "0x4444444444444444444444444444444444444444"
	testOwner    = "0x3333333333333333333333333333333333333333"
)

type viewHandler func(args []interface{}) ([]interface{}, error)

// fakeBackend is an in-memory rpcBackend keyed by method selector.
type fakeBackend struct {
	mu sync.Mutex

	chainID    *big.Int
	chainIDErr error
	nonce      uint64
	nonceErr   error
	sendErr    error
	receipt    *types.Receipt
	receiptErr error
	views      map[string]viewHandler
	abis       []abi.ABI

	sent     []*types.Transaction
	nonces   []uint64
	closed   bool
	sendHook func(ctx context.Context, tx *types.Transaction) error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		chainID: big.NewInt(84532),
		views:   map[string]viewHandler{},
		abis:    []abi.ABI{CredentialABI, ERC721BalanceABI, ERC1155BalanceABI},
	}
}

func (f *fakeBackend) onView(parsed abi.ABI, method string, h viewHandler) {
	f.views[string(parsed.Methods[method].ID)] = h
}

func (f *fakeBackend) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, f.chainIDErr
}

func (f *fakeBackend) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if len(msg.Data) < 4 {
		return nil, errors.New("no selector")
	}
	selector := msg.Data[:4]
	h, ok := f.views[string(selector)]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	for _, parsed := range f.abis {
		for _, m := range parsed.Methods {
			if !bytes.Equal(m.ID, selector) {
				continue
			}
			args, err := m.Inputs.Unpack(msg.Data[4:])
			if err != nil {
				return nil, err
			}
			out, err := h(args)
			if err != nil {
				return nil, err
			}
			return m.Outputs.Pack(out...)
		}
	}
	return nil, errors.New("unknown selector")
}

func (f *fakeBackend) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.nonceErr != nil {
		return 0, f.nonceErr
	}
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(context.Context, ethereum.CallMsg) (uint64, error) {
	return 150_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendHook != nil {
		if err := f.sendHook(ctx, tx); err != nil {
			return err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.nonces = append(f.nonces, tx.Nonce())
	f.nonce++
	return nil
}

func (f *fakeBackend) TransactionReceipt(context.Context, common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	if f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

func (f *fakeBackend) Close() { f.closed = true }

func mintedReceipt(tokenID int64) *types.Receipt {
	return &types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(42),
		Logs: []*types.Log{{
			Address: common.HexToAddress(testContract),
			Topics: []common.Hash{
				TransferTopic,
				{},
				common.BytesToHash(common.HexToAddress(testOwner).Bytes()),
				common.BigToHash(big.NewInt(tokenID)),
			},
		}},
	}
}

func testChainConfig(t *testing.T) config.BlockchainConfig {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return config.BlockchainConfig{
		RPCURL:              "http://fake-rpc",
		ChainID:             84532,
		MinterPrivateKey:    common.Bytes2Hex(crypto.FromECDSA(key)),
		ContractAddress:     testContract,
		ConfirmTimeout:      200 * time.Millisecond,
		ReceiptPollInterval: 10 * time.Millisecond,
	}
}

func withFakeDial(t *testing.T, backend *fakeBackend) {
	t.Helper()
	orig := dialEVMClient
	t.Cleanup(func() { dialEVMClient = orig })
	dialEVMClient = func(context.Context, string) (rpcBackend, error) {
		return backend, nil
	}
}

func newReadyGateway(t *testing.T, backend *fakeBackend) *CredentialGateway {
	t.Helper()
	withFakeDial(t, backend)
	g := NewCredentialGateway(context.Background(), testChainConfig(t), metrics.Nop())
	require.True(t, g.IsReady(), "init error: %v", g.InitError())
	return g
}
