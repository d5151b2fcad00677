package usecases_test

import (
	"context"
	"math/big"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"soulbound.backend/internal/domain/entities"
	"soulbound.backend/pkg/utils"
)

// Mock UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, f func(context.Context) error) error {
	m.Called(ctx, f)
	return f(ctx)
}

// Mock WalletRepository
type MockWalletRepository struct {
	mock.Mock
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *entities.Wallet) error {
	args := m.Called(ctx, wallet)
	return args.Error(0)
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) GetByAddress(ctx context.Context, address string) (*entities.Wallet, error) {
	args := m.Called(ctx, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Wallet), args.Error(1)
}

func (m *MockWalletRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock RedemptionCodeRepository
type MockRedemptionCodeRepository struct {
	mock.Mock
}

func (m *MockRedemptionCodeRepository) Create(ctx context.Context, code *entities.RedemptionCode) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockRedemptionCodeRepository) GetByCode(ctx context.Context, code string) (*entities.RedemptionCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RedemptionCode), args.Error(1)
}

func (m *MockRedemptionCodeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// Mock RedemptionRepository
type MockRedemptionRepository struct {
	mock.Mock
}

func (m *MockRedemptionRepository) Create(ctx context.Context, redemption *entities.Redemption) error {
	args := m.Called(ctx, redemption)
	return args.Error(0)
}

func (m *MockRedemptionRepository) GetByCodeAndUser(ctx context.Context, codeID, userID uuid.UUID) (*entities.Redemption, error) {
	args := m.Called(ctx, codeID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Redemption), args.Error(1)
}

func (m *MockRedemptionRepository) MarkIssued(ctx context.Context, id, credentialID uuid.UUID) error {
	args := m.Called(ctx, id, credentialID)
	return args.Error(0)
}

func (m *MockRedemptionRepository) MarkPending(ctx context.Context, id uuid.UUID, reason, txHash string) error {
	args := m.Called(ctx, id, reason, txHash)
	return args.Error(0)
}

func (m *MockRedemptionRepository) ListPending(ctx context.Context, limit int) ([]*entities.Redemption, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Redemption), args.Error(1)
}

// Mock EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) Create(ctx context.Context, event *entities.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Event), args.Error(1)
}

// Mock UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *entities.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

// Mock CredentialRepository
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) Create(ctx context.Context, credential *entities.IssuedCredential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) GetByReference(ctx context.Context, referenceID string) (*entities.IssuedCredential, error) {
	args := m.Called(ctx, referenceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.IssuedCredential), args.Error(1)
}

func (m *MockCredentialRepository) ListByWallet(ctx context.Context, walletID uuid.UUID, pagination utils.PaginationParams) ([]*entities.IssuedCredential, int64, error) {
	args := m.Called(ctx, walletID, pagination)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entities.IssuedCredential), args.Get(1).(int64), args.Error(2)
}

// Mock CredentialGateway
type MockCredentialGateway struct {
	mock.Mock
}

func (m *MockCredentialGateway) IsReady() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockCredentialGateway) ContractAddress() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockCredentialGateway) Mint(ctx context.Context, req entities.MintRequest) (*entities.MintResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.MintResult), args.Error(1)
}

func (m *MockCredentialGateway) FindCredentialForReference(ctx context.Context, owner, referenceID string) entities.ChainRead[*entities.OnchainCredential] {
	args := m.Called(ctx, owner, referenceID)
	return args.Get(0).(entities.ChainRead[*entities.OnchainCredential])
}

func (m *MockCredentialGateway) TokenURI(ctx context.Context, tokenID *big.Int) entities.ChainRead[string] {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(entities.ChainRead[string])
}

func (m *MockCredentialGateway) TransactionBlock(ctx context.Context, txHash string) entities.ChainRead[uint64] {
	args := m.Called(ctx, txHash)
	return args.Get(0).(entities.ChainRead[uint64])
}

func (m *MockCredentialGateway) GetCredentialsByOwner(ctx context.Context, owner string) []string {
	args := m.Called(ctx, owner)
	return args.Get(0).([]string)
}

func (m *MockCredentialGateway) CheckExternalOwnership(ctx context.Context, contract, owner string, tokenID *big.Int) bool {
	args := m.Called(ctx, contract, owner, tokenID)
	return args.Bool(0)
}

// Mock NonceStore
type MockNonceStore struct {
	mock.Mock
}

func (m *MockNonceStore) Issue(ctx context.Context, address, nonce string) error {
	args := m.Called(ctx, address, nonce)
	return args.Error(0)
}

func (m *MockNonceStore) Consume(ctx context.Context, address, message string) (bool, error) {
	args := m.Called(ctx, address, message)
	return args.Bool(0), args.Error(1)
}
