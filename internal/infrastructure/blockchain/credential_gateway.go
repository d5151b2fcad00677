package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"soulbound.backend/internal/config"
	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/pkg/logger"
)

const (
	defaultConfirmTimeout = 90 * time.Second
	defaultPollInterval   = 2 * time.Second
	dialTimeout           = 10 * time.Second
	metadataFanOut        = 8
)

// CredentialGateway mints and reads soulbound credentials on the configured chain.
// Initialization happens once; a gateway that failed to initialize stays not-ready.
type CredentialGateway struct {
	client         *EVMClient
	contract       common.Address
	auth           *bind.TransactOpts
	confirmTimeout time.Duration
	pollInterval   time.Duration
	metrics        *metrics.Metrics

	ready   bool
	initErr error

	nonces nonceCounter
}

// NewCredentialGateway initializes the gateway. It never fails; check IsReady.
func NewCredentialGateway(ctx context.Context, cfg config.BlockchainConfig, m *metrics.Metrics) *CredentialGateway {
	g := &CredentialGateway{
		confirmTimeout: cfg.ConfirmTimeout,
		pollInterval:   cfg.ReceiptPollInterval,
		metrics:        m,
	}
	if g.confirmTimeout <= 0 {
		g.confirmTimeout = defaultConfirmTimeout
	}
	if g.pollInterval <= 0 {
		g.pollInterval = defaultPollInterval
	}

	if err := g.init(ctx, cfg); err != nil {
		g.initErr = err
		m.SetGatewayReady(false)
		logger.Error(ctx, "Credential gateway not ready", zap.Error(err))
		return g
	}

	g.ready = true
	m.SetGatewayReady(true)
	logger.Info(ctx, "Credential gateway ready",
		zap.String("contract", g.contract.Hex()),
		zap.String("signer", g.auth.From.Hex()),
		zap.String("chain_id", g.client.ChainID().String()),
	)
	return g
}

func (g *CredentialGateway) init(ctx context.Context, cfg config.BlockchainConfig) error {
	if missing := cfg.Missing(); len(missing) > 0 {
		return domainerrors.Configuration("missing " + strings.Join(missing, ", "))
	}

	key, err := parsePrivateKey(cfg.MinterPrivateKey)
	if err != nil {
		return domainerrors.Configuration("invalid MINTER_PRIVATE_KEY")
	}
	if !common.IsHexAddress(cfg.ContractAddress) {
		return domainerrors.Configuration("invalid CREDENTIAL_CONTRACT_ADDRESS")
	}

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	client, err := NewEVMClient(dialCtx, cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", domainerrors.ErrChainUnavailable, cfg.RPCURL, err)
	}

	if cfg.ChainID != 0 && client.ChainID().Cmp(big.NewInt(cfg.ChainID)) != 0 {
		client.Close()
		return domainerrors.Configuration(fmt.Sprintf("chain id mismatch: configured %d, network reports %s", cfg.ChainID, client.ChainID()))
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, client.ChainID())
	if err != nil {
		client.Close()
		return domainerrors.Configuration("cannot build transactor: " + err.Error())
	}

	g.client = client
	g.contract = common.HexToAddress(cfg.ContractAddress)
	g.auth = auth
	return nil
}

func parsePrivateKey(raw string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(raw), "0x"))
}

// IsReady reports whether initialization succeeded.
func (g *CredentialGateway) IsReady() bool {
	return g != nil && g.ready
}

// InitError returns why the gateway is not ready, or nil.
func (g *CredentialGateway) InitError() error {
	if g == nil {
		return domainerrors.ErrChainUnavailable
	}
	return g.initErr
}

// ContractAddress is the checksummed credential contract address, empty when not ready.
func (g *CredentialGateway) ContractAddress() string {
	if !g.IsReady() {
		return ""
	}
	return g.contract.Hex()
}

// Close releases the RPC connection.
func (g *CredentialGateway) Close() {
	if g != nil && g.client != nil {
		g.client.Close()
	}
}

// Mint submits mint(to, uri, kind, referenceId) and waits for the receipt.
func (g *CredentialGateway) Mint(ctx context.Context, req entities.MintRequest) (*entities.MintResult, error) {
	if !g.IsReady() {
		g.metrics.IncMint("unavailable")
		return nil, fmt.Errorf("%w: gateway not initialized", domainerrors.ErrChainUnavailable)
	}
	if !common.IsHexAddress(req.RecipientAddress) {
		return nil, domainerrors.ErrInvalidAddress
	}

	data, err := CredentialABI.Pack("mint",
		common.HexToAddress(req.RecipientAddress),
		req.MetadataURI,
		req.Kind.ContractValue(),
		req.ReferenceID,
	)
	if err != nil {
		return nil, domainerrors.MintFailed("pack mint call", err)
	}

	started := time.Now()
	signed, err := g.signMint(ctx, data)
	if err != nil {
		g.metrics.IncMint("send_failed")
		logger.Error(ctx, "Mint transaction could not be prepared",
			zap.String("reference_id", req.ReferenceID),
			zap.Error(err),
		)
		return nil, domainerrors.MintFailed("prepare transaction", err)
	}
	txHash := signed.Hash().Hex()

	if err := g.client.SendTransaction(ctx, signed); err != nil {
		// reseed from the network on any send error
		g.nonces.reset()
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			g.metrics.IncMint("unknown")
			logger.Warn(ctx, "Mint send interrupted, outcome unknown",
				zap.String("tx_hash", txHash),
				zap.String("reference_id", req.ReferenceID),
				zap.Error(err),
			)
			return nil, domainerrors.WithTxHash(
				fmt.Errorf("%w: send interrupted: %v", domainerrors.ErrMintOutcomeUnknown, err), txHash)
		}
		g.metrics.IncMint("send_failed")
		logger.Error(ctx, "Mint submission failed",
			zap.String("reference_id", req.ReferenceID),
			zap.Error(err),
		)
		return nil, domainerrors.MintFailed("send transaction", err)
	}
	logger.Info(ctx, "Mint submitted",
		zap.String("tx_hash", txHash),
		zap.String("recipient", req.RecipientAddress),
		zap.String("reference_id", req.ReferenceID),
	)

	receipt, err := g.waitForReceipt(ctx, signed.Hash())
	if err != nil {
		g.metrics.IncMint("unknown")
		logger.Warn(ctx, "Mint outcome unknown, must be reconciled",
			zap.String("tx_hash", txHash),
			zap.String("reference_id", req.ReferenceID),
		)
		return nil, domainerrors.WithTxHash(err, txHash)
	}
	g.metrics.ObserveMintDuration(float64(time.Since(started).Milliseconds()))

	if receipt.Status == types.ReceiptStatusFailed {
		g.metrics.IncMint("reverted")
		return nil, domainerrors.WithTxHash(domainerrors.ErrMintReverted, txHash)
	}

	tokenID, ok := ParseMintedTokenID(receipt.Logs, g.contract)
	if !ok {
		tokenID = "0"
		g.metrics.IncTokenIDFallback()
		logger.Warn(ctx, "Mint receipt has no Transfer log, recording token id 0",
			zap.String("tx_hash", txHash),
			zap.String("reference_id", req.ReferenceID),
		)
	}

	g.metrics.IncMint("confirmed")
	result := &entities.MintResult{
		TokenID:         tokenID,
		TransactionHash: txHash,
	}
	if receipt.BlockNumber != nil {
		result.BlockNumber = receipt.BlockNumber.Uint64()
	}
	return result, nil
}

// signMint prices and signs the mint call. No lock is held across the RPC calls;
// the nonce is reserved last so a pricing failure does not leave a gap.
func (g *CredentialGateway) signMint(ctx context.Context, data []byte) (*types.Transaction, error) {
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("gas price: %w", err)
	}
	gas, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From: g.auth.From,
		To:   &g.contract,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	nonce, err := g.reserveNonce(ctx)
	if err != nil {
		return nil, err
	}
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &g.contract,
		Gas:      gas + gas/5,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := g.auth.Signer(g.auth.From, tx)
	if err != nil {
		g.nonces.reset()
		return nil, fmt.Errorf("sign: %w", err)
	}
	return signed, nil
}

func (g *CredentialGateway) reserveNonce(ctx context.Context) (uint64, error) {
	if nonce, ok := g.nonces.take(); ok {
		return nonce, nil
	}
	pending, err := g.client.PendingNonceAt(ctx, g.auth.From)
	if err != nil {
		return 0, fmt.Errorf("pending nonce: %w", err)
	}
	return g.nonces.seedAndTake(pending), nil
}

func (g *CredentialGateway) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, g.confirmTimeout)
	defer cancel()

	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()

	for {
		receipt, err := g.client.GetTransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			logger.Debug(ctx, "Receipt poll failed", zap.String("tx_hash", hash.Hex()), zap.Error(err))
		}

		select {
		case <-waitCtx.Done():
			return nil, domainerrors.ErrMintOutcomeUnknown
		case <-ticker.C:
		}
	}
}

// BalanceOf reads the credential balance of owner.
func (g *CredentialGateway) BalanceOf(ctx context.Context, owner string) entities.ChainRead[*big.Int] {
	if !g.canRead(owner) {
		return entities.ReadUnavailable[*big.Int]()
	}
	v, err := callTypedView[*big.Int](ctx, g.client, g.contract, CredentialABI, "balanceOf", common.HexToAddress(owner))
	if err != nil {
		return readFailed[*big.Int](ctx, g, "balanceOf", err)
	}
	return entities.ReadOK(v)
}

// OwnerOf reads the owner of tokenID.
func (g *CredentialGateway) OwnerOf(ctx context.Context, tokenID *big.Int) entities.ChainRead[string] {
	if !g.IsReady() || tokenID == nil {
		return entities.ReadUnavailable[string]()
	}
	v, err := callTypedView[common.Address](ctx, g.client, g.contract, CredentialABI, "ownerOf", tokenID)
	if err != nil {
		return readFailed[string](ctx, g, "ownerOf", err)
	}
	return entities.ReadOK(v.Hex())
}

// TokensOfOwner lists the token ids held by owner.
func (g *CredentialGateway) TokensOfOwner(ctx context.Context, owner string) entities.ChainRead[[]*big.Int] {
	if !g.canRead(owner) {
		return entities.ReadUnavailable[[]*big.Int]()
	}
	v, err := callTypedView[[]*big.Int](ctx, g.client, g.contract, CredentialABI, "tokensOfOwner", common.HexToAddress(owner))
	if err != nil {
		return readFailed[[]*big.Int](ctx, g, "tokensOfOwner", err)
	}
	return entities.ReadOK(v)
}

// TokenMetadata reads the kind and reference id recorded for tokenID.
func (g *CredentialGateway) TokenMetadata(ctx context.Context, tokenID *big.Int) entities.ChainRead[entities.OnchainCredential] {
	if !g.IsReady() || tokenID == nil {
		return entities.ReadUnavailable[entities.OnchainCredential]()
	}
	vals, err := callView(ctx, g.client, g.contract, CredentialABI, "tokenMetadata", tokenID)
	if err == nil && len(vals) < 2 {
		err = errors.New("short tokenMetadata result")
	}
	if err != nil {
		return readFailed[entities.OnchainCredential](ctx, g, "tokenMetadata", err)
	}
	kind, okKind := vals[0].(uint8)
	ref, okRef := vals[1].(string)
	if !okKind || !okRef {
		return readFailed[entities.OnchainCredential](ctx, g, "tokenMetadata", errors.New("invalid tokenMetadata return type"))
	}
	return entities.ReadOK(entities.OnchainCredential{
		TokenID:     tokenID.String(),
		Kind:        entities.CredentialKindFromContract(kind),
		ReferenceID: ref,
	})
}

// TokenURI reads the metadata URI of tokenID.
func (g *CredentialGateway) TokenURI(ctx context.Context, tokenID *big.Int) entities.ChainRead[string] {
	if !g.IsReady() || tokenID == nil {
		return entities.ReadUnavailable[string]()
	}
	v, err := callTypedView[string](ctx, g.client, g.contract, CredentialABI, "tokenURI", tokenID)
	if err != nil {
		return readFailed[string](ctx, g, "tokenURI", err)
	}
	return entities.ReadOK(v)
}

// TransactionBlock reads the block number that included txHash.
func (g *CredentialGateway) TransactionBlock(ctx context.Context, txHash string) entities.ChainRead[uint64] {
	if !g.IsReady() || txHash == "" {
		return entities.ReadUnavailable[uint64]()
	}
	receipt, err := g.client.GetTransactionReceipt(ctx, common.HexToHash(txHash))
	if err == nil && (receipt == nil || receipt.BlockNumber == nil) {
		err = errors.New("receipt without block number")
	}
	if err != nil {
		return readFailed[uint64](ctx, g, "transactionReceipt", err)
	}
	return entities.ReadOK(receipt.BlockNumber.Uint64())
}

// FindCredentialForReference looks through owner's tokens for one minted with referenceID.
// The value is nil when owner holds no such token. The read is unavailable when
// no match was found and some token could not be inspected.
func (g *CredentialGateway) FindCredentialForReference(ctx context.Context, owner, referenceID string) entities.ChainRead[*entities.OnchainCredential] {
	tokens := g.TokensOfOwner(ctx, owner)
	if !tokens.Available {
		return entities.ReadUnavailable[*entities.OnchainCredential]()
	}

	found := make([]*entities.OnchainCredential, len(tokens.Value))
	missed := make([]bool, len(tokens.Value))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(metadataFanOut)
	for i, tokenID := range tokens.Value {
		eg.Go(func() error {
			meta := g.TokenMetadata(egCtx, tokenID)
			if !meta.Available {
				missed[i] = true
				return nil
			}
			if meta.Value.ReferenceID == referenceID {
				cred := meta.Value
				found[i] = &cred
			}
			return nil
		})
	}
	_ = eg.Wait()

	unknown := false
	for i := range found {
		if found[i] != nil {
			return entities.ReadOK(found[i])
		}
		if missed[i] {
			unknown = true
		}
	}
	if unknown {
		return entities.ReadUnavailable[*entities.OnchainCredential]()
	}
	return entities.ReadOK[*entities.OnchainCredential](nil)
}

// HasCredentialForReference is false when no match exists or the chain cannot tell.
func (g *CredentialGateway) HasCredentialForReference(ctx context.Context, owner, referenceID string) bool {
	res := g.FindCredentialForReference(ctx, owner, referenceID)
	return res.Available && res.Value != nil
}

// GetCredentialsByOwner returns owner's token ids, empty when the chain is unavailable.
func (g *CredentialGateway) GetCredentialsByOwner(ctx context.Context, owner string) []string {
	tokens := g.TokensOfOwner(ctx, owner)
	if !tokens.Available {
		return []string{}
	}
	out := make([]string, 0, len(tokens.Value))
	for _, id := range tokens.Value {
		out = append(out, id.String())
	}
	return out
}

// CheckExternalOwnership probes an arbitrary NFT contract for owner's balance,
// first as ERC-721 then as ERC-1155. Any failure denies.
func (g *CredentialGateway) CheckExternalOwnership(ctx context.Context, contract, owner string, tokenID *big.Int) bool {
	if g == nil || g.client == nil || !common.IsHexAddress(contract) || !common.IsHexAddress(owner) {
		return false
	}
	target := common.HexToAddress(contract)
	holder := common.HexToAddress(owner)

	balance, err := callTypedView[*big.Int](ctx, g.client, target, ERC721BalanceABI, "balanceOf", holder)
	if err == nil {
		return balance.Sign() > 0
	}
	logger.Debug(ctx, "ERC-721 balanceOf failed, trying ERC-1155", zap.String("contract", contract), zap.Error(err))

	if tokenID == nil {
		tokenID = big.NewInt(0)
	}
	balance, err = callTypedView[*big.Int](ctx, g.client, target, ERC1155BalanceABI, "balanceOf", holder, tokenID)
	if err != nil {
		g.metrics.IncChainReadFailure("externalBalanceOf")
		logger.Warn(ctx, "Ownership probe failed, denying", zap.String("contract", contract), zap.Error(err))
		return false
	}
	return balance.Sign() > 0
}

func (g *CredentialGateway) canRead(owner string) bool {
	return g.IsReady() && common.IsHexAddress(owner)
}

func readFailed[T any](ctx context.Context, g *CredentialGateway, method string, err error) entities.ChainRead[T] {
	g.metrics.IncChainReadFailure(method)
	logger.Warn(ctx, "Contract read unavailable", zap.String("method", method), zap.Error(err))
	return entities.ReadUnavailable[T]()
}
