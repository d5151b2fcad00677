package usecases_test

import (
	"context"
	"math/big"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/infrastructure/metrics"
	"soulbound.backend/internal/usecases"
	"soulbound.backend/pkg/utils"
)

// memStore is an in-memory ledger with the same uniqueness rules as the database.
type memStore struct {
	mu          sync.Mutex
	users       map[uuid.UUID]entities.User
	events      map[uuid.UUID]entities.Event
	codes       map[string]entities.RedemptionCode
	redemptions map[uuid.UUID]entities.Redemption
	wallets     map[uuid.UUID]entities.Wallet
	credentials map[uuid.UUID]entities.IssuedCredential
	quests      map[uuid.UUID]entities.Quest
	completions map[uuid.UUID]entities.QuestCompletion
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[uuid.UUID]entities.User{},
		events:      map[uuid.UUID]entities.Event{},
		codes:       map[string]entities.RedemptionCode{},
		redemptions: map[uuid.UUID]entities.Redemption{},
		wallets:     map[uuid.UUID]entities.Wallet{},
		credentials: map[uuid.UUID]entities.IssuedCredential{},
		quests:      map[uuid.UUID]entities.Quest{},
		completions: map[uuid.UUID]entities.QuestCompletion{},
	}
}

type (
	memUsers       struct{ *memStore }
	memEvents      struct{ *memStore }
	memCodes       struct{ *memStore }
	memRedemptions struct{ *memStore }
	memWallets     struct{ *memStore }
	memCredentials struct{ *memStore }
	memQuests      struct{ *memStore }
	memCompletions struct{ *memStore }
	memUoW         struct{}
)

func (memUoW) Do(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }

func (s memUsers) Create(_ context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = *user
	return nil
}

func (s memUsers) GetByID(_ context.Context, id uuid.UUID) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domainerrors.ErrNotFound
	}
	return &u, nil
}

func (s memEvents) Create(_ context.Context, event *entities.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.ID] = *event
	return nil
}

func (s memEvents) GetByID(_ context.Context, id uuid.UUID) (*entities.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.events[id]
	if !ok {
		return nil, domainerrors.ErrEventNotFound
	}
	if owner, ok := s.users[e.OwnerUserID]; ok {
		e.Owner = &owner
	}
	return &e, nil
}

func (s memCodes) Create(_ context.Context, code *entities.RedemptionCode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.codes[code.Code]; ok {
		return domainerrors.ErrConflict
	}
	if code.ID == uuid.Nil {
		code.ID = uuid.New()
	}
	s.codes[code.Code] = *code
	return nil
}

func (s memCodes) GetByCode(_ context.Context, code string) (*entities.RedemptionCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[code]
	if !ok {
		return nil, domainerrors.ErrCodeNotFound
	}
	return &c, nil
}

func (s memCodes) Deactivate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, c := range s.codes {
		if c.ID == id {
			c.IsActive = false
			s.codes[k] = c
			return nil
		}
	}
	return domainerrors.ErrCodeNotFound
}

func (s memRedemptions) Create(_ context.Context, r *entities.Redemption) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.redemptions {
		if existing.CodeID == r.CodeID && existing.UserID == r.UserID {
			return domainerrors.ErrAlreadyRedeemed
		}
	}
	if r.ID == uuid.Nil {
		r.ID = utils.GenerateUUIDv7()
	}
	s.redemptions[r.ID] = *r
	return nil
}

func (s memRedemptions) GetByCodeAndUser(_ context.Context, codeID, userID uuid.UUID) (*entities.Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.redemptions {
		if r.CodeID == codeID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (s memRedemptions) MarkIssued(_ context.Context, id, credentialID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.redemptions[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	r.CredentialStatus = entities.CredentialStatusIssued
	r.CredentialID = &credentialID
	r.PendingReason = null.String{}
	s.redemptions[id] = r
	return nil
}

func (s memRedemptions) MarkPending(_ context.Context, id uuid.UUID, reason, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.redemptions[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if r.CredentialStatus != entities.CredentialStatusPending {
		return nil
	}
	r.PendingReason = null.StringFrom(reason)
	if txHash != "" {
		r.MintTxHash = null.StringFrom(txHash)
	}
	s.redemptions[id] = r
	return nil
}

func (s memRedemptions) ListPending(_ context.Context, limit int) ([]*entities.Redemption, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entities.Redemption{}
	for _, r := range s.redemptions {
		if r.CredentialStatus == entities.CredentialStatusPending {
			r := r
			out = append(out, &r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memRedemptions) get(id uuid.UUID) entities.Redemption {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redemptions[id]
}

func (s memWallets) Create(_ context.Context, w *entities.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.wallets {
		if existing.UserID == w.UserID || existing.Address == w.Address {
			return domainerrors.ErrAlreadyLinked
		}
	}
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	s.wallets[w.ID] = *w
	return nil
}

func (s memWallets) GetByID(_ context.Context, id uuid.UUID) (*entities.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[id]
	if !ok {
		return nil, domainerrors.ErrWalletNotFound
	}
	return &w, nil
}

func (s memWallets) GetByUserID(_ context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.UserID == userID {
			return &w, nil
		}
	}
	return nil, domainerrors.ErrWalletNotFound
}

func (s memWallets) GetByAddress(_ context.Context, address string) (*entities.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wallets {
		if w.Address == entities.NormalizeAddress(address) {
			return &w, nil
		}
	}
	return nil, domainerrors.ErrWalletNotFound
}

func (s memWallets) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.wallets[id]; !ok {
		return domainerrors.ErrWalletNotFound
	}
	delete(s.wallets, id)
	return nil
}

func (s memCredentials) Create(_ context.Context, c *entities.IssuedCredential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.credentials {
		if existing.ReferenceID == c.ReferenceID {
			return domainerrors.ErrConflict
		}
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	s.credentials[c.ID] = *c
	return nil
}

func (s memCredentials) GetByReference(_ context.Context, referenceID string) (*entities.IssuedCredential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.credentials {
		if c.ReferenceID == referenceID {
			return &c, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (s memCredentials) ListByWallet(_ context.Context, walletID uuid.UUID, _ utils.PaginationParams) ([]*entities.IssuedCredential, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entities.IssuedCredential{}
	for _, c := range s.credentials {
		if c.OwnerWalletID == walletID {
			c := c
			out = append(out, &c)
		}
	}
	return out, int64(len(out)), nil
}

func (s memCredentials) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.credentials)
}

func (s memQuests) Create(_ context.Context, q *entities.Quest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	s.quests[q.ID] = *q
	return nil
}

func (s memQuests) GetByID(_ context.Context, id uuid.UUID) (*entities.Quest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quests[id]
	if !ok {
		return nil, domainerrors.ErrQuestNotFound
	}
	if owner, ok := s.users[q.OwnerUserID]; ok {
		q.Owner = &owner
	}
	return &q, nil
}

func (s memCompletions) Create(_ context.Context, c *entities.QuestCompletion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.completions {
		if existing.QuestID == c.QuestID && existing.UserID == c.UserID {
			return domainerrors.ErrConflict
		}
	}
	if c.ID == uuid.Nil {
		c.ID = utils.GenerateUUIDv7()
	}
	s.completions[c.ID] = *c
	return nil
}

func (s memCompletions) GetByQuestAndUser(_ context.Context, questID, userID uuid.UUID) (*entities.QuestCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.completions {
		if c.QuestID == questID && c.UserID == userID {
			return &c, nil
		}
	}
	return nil, domainerrors.ErrNotFound
}

func (s memCompletions) MarkIssued(_ context.Context, id, credentialID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.completions[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	c.CredentialStatus = entities.CredentialStatusIssued
	c.CredentialID = &credentialID
	c.PendingReason = null.String{}
	s.completions[id] = c
	return nil
}

func (s memCompletions) MarkPending(_ context.Context, id uuid.UUID, reason, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.completions[id]
	if !ok {
		return domainerrors.ErrNotFound
	}
	if c.CredentialStatus != entities.CredentialStatusPending {
		return nil
	}
	c.PendingReason = null.StringFrom(reason)
	if txHash != "" {
		c.MintTxHash = null.StringFrom(txHash)
	}
	s.completions[id] = c
	return nil
}

func (s memCompletions) ListPending(_ context.Context, limit int) ([]*entities.QuestCompletion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*entities.QuestCompletion{}
	for _, c := range s.completions {
		if c.CredentialStatus == entities.CredentialStatusPending {
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s memCompletions) get(id uuid.UUID) entities.QuestCompletion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completions[id]
}

// fakeGateway mints sequential token ids, or fails with mintErr. onMinted
// runs after the token exists on chain and before Mint returns.
type fakeGateway struct {
	ready    bool
	mintErr  error
	minted   atomic.Int64
	onChain  map[string]*entities.OnchainCredential
	onMinted func(ctx context.Context, req entities.MintRequest, result *entities.MintResult)
}

func (g *fakeGateway) IsReady() bool           { return g.ready }
func (g *fakeGateway) ContractAddress() string { return testContractAddress }

func (g *fakeGateway) Mint(ctx context.Context, req entities.MintRequest) (*entities.MintResult, error) {
	if !g.ready {
		return nil, domainerrors.ErrChainUnavailable
	}
	if g.mintErr != nil {
		return nil, g.mintErr
	}
	id := g.minted.Add(1)
	result := &entities.MintResult{
		TokenID:         strconv.FormatInt(id, 10),
		TransactionHash: "0x" + strconv.FormatInt(1000+id, 16),
		BlockNumber:     uint64(100 + id),
	}
	if g.onMinted != nil {
		g.onMinted(ctx, req, result)
	}
	return result, nil
}

func (g *fakeGateway) FindCredentialForReference(_ context.Context, _, referenceID string) entities.ChainRead[*entities.OnchainCredential] {
	return entities.ReadOK(g.onChain[referenceID])
}

func (g *fakeGateway) TokenURI(_ context.Context, tokenID *big.Int) entities.ChainRead[string] {
	return entities.ReadOK("data:application/json;base64,e30=")
}

func (g *fakeGateway) TransactionBlock(_ context.Context, txHash string) entities.ChainRead[uint64] {
	if txHash == "" {
		return entities.ReadUnavailable[uint64]()
	}
	return entities.ReadOK(uint64(77))
}

func (g *fakeGateway) GetCredentialsByOwner(context.Context, string) []string { return []string{} }

func (g *fakeGateway) CheckExternalOwnership(context.Context, string, string, *big.Int) bool {
	return false
}

type ledgerFixture struct {
	store   *memStore
	gateway *fakeGateway
	ledger  *usecases.RedemptionUsecase
	quests  *usecases.QuestUsecase
	metrics *metrics.Metrics
	owner   entities.User
	event   entities.Event
}

func newLedgerFixture(gateway *fakeGateway) *ledgerFixture {
	store := newMemStore()
	m := metrics.Nop()
	issuer := usecases.NewCredentialIssuer(gateway, memCredentials{store}, memWallets{store}, memUoW{})
	ledger := usecases.NewRedemptionUsecase(
		memCodes{store}, memRedemptions{store}, memEvents{store}, memUsers{store},
		memWallets{store}, memCredentials{store}, memUoW{}, issuer, gateway, m,
	)
	quests := usecases.NewQuestUsecase(
		memQuests{store}, memCompletions{store}, memUsers{store},
		memWallets{store}, memCredentials{store}, memUoW{}, issuer, gateway, m,
	)

	owner := entities.User{ID: uuid.New(), Email: "owner@example.com", Name: "Organizer"}
	store.users[owner.ID] = owner
	event := entities.Event{ID: uuid.New(), OwnerUserID: owner.ID, Title: "GopherCon"}
	store.events[event.ID] = event

	return &ledgerFixture{store: store, gateway: gateway, ledger: ledger, quests: quests, metrics: m, owner: owner, event: event}
}

func (f *ledgerFixture) addCode(code string, active bool) entities.RedemptionCode {
	c := entities.RedemptionCode{ID: uuid.New(), Code: code, OwnerEventID: f.event.ID, IsActive: active}
	f.store.codes[code] = c
	return c
}

func (f *ledgerFixture) addUserWithWallet(address string) uuid.UUID {
	id := uuid.New()
	f.store.users[id] = entities.User{ID: id, Name: "Attendee " + address[len(address)-4:]}
	w := entities.Wallet{ID: uuid.New(), UserID: id, Address: address}
	f.store.wallets[w.ID] = w
	return id
}

func (f *ledgerFixture) addQuest(title string) entities.Quest {
	q := entities.Quest{ID: uuid.New(), OwnerUserID: f.owner.ID, Title: title, RewardAmount: "10"}
	f.store.quests[q.ID] = q
	return q
}
