package blockchain

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// rpcBackend is the subset of ethclient.Client the gateway uses.
type rpcBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
	Close()
}

var dialEVMClient = func(ctx context.Context, rpcURL string) (rpcBackend, error) {
	return ethclient.DialContext(ctx, rpcURL)
}

// EVMClient provides EVM blockchain interaction
type EVMClient struct {
	backend rpcBackend
	chainID *big.Int
	rpcURL  string
}

// NewEVMClient dials rpcURL and reads the network chain id.
func NewEVMClient(ctx context.Context, rpcURL string) (*EVMClient, error) {
	backend, err := dialEVMClient(ctx, rpcURL)
	if err != nil {
		return nil, err
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		backend.Close()
		return nil, err
	}
	if chainID == nil {
		backend.Close()
		return nil, errors.New("chain id is nil")
	}

	return &EVMClient{
		backend: backend,
		chainID: chainID,
		rpcURL:  rpcURL,
	}, nil
}

// newEVMClientWithBackend wraps an already connected backend.
func newEVMClientWithBackend(backend rpcBackend, chainID *big.Int) *EVMClient {
	if chainID == nil {
		chainID = big.NewInt(1)
	}
	return &EVMClient{backend: backend, chainID: chainID}
}

// ChainID returns the chain ID
func (c *EVMClient) ChainID() *big.Int {
	return c.chainID
}

// CallView executes a read-only contract call
func (c *EVMClient) CallView(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{
		To:   &to,
		Data: data,
	}
	return c.backend.CallContract(ctx, msg, nil)
}

// PendingNonceAt returns the next account nonce including pending transactions.
func (c *EVMClient) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return c.backend.PendingNonceAt(ctx, account)
}

// SuggestGasPrice returns the node's legacy gas price suggestion.
func (c *EVMClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return c.backend.SuggestGasPrice(ctx)
}

// EstimateGas estimates gas for a transaction
func (c *EVMClient) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	return c.backend.EstimateGas(ctx, msg)
}

// SendTransaction broadcasts a signed transaction.
func (c *EVMClient) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	return c.backend.SendTransaction(ctx, tx)
}

// GetTransactionReceipt gets transaction receipt. ethereum.NotFound means not yet mined.
func (c *EVMClient) GetTransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	return c.backend.TransactionReceipt(ctx, txHash)
}

// Close closes the client connection
func (c *EVMClient) Close() {
	if c.backend != nil {
		c.backend.Close()
	}
}
