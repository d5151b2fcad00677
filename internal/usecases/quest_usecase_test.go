package usecases_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	concurrent "soulbound.backend/internal/testutil"
)

func TestApproveSubmission_IssuesCredential(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(&fakeGateway{ready: true})
	quest := f.addQuest("Docs quest")
	u1 := f.addUserWithWallet(walletU1)

	res, err := f.quests.ApproveSubmission(ctx, quest.ID, u1, f.owner.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Credential)
	assert.True(t, res.Completed)
	assert.Empty(t, res.PendingReason)
	assert.Equal(t, entities.CredentialKindQuestCompletion, res.Credential.Kind)
	assert.Equal(t, entities.QuestReferenceID(quest.ID, u1), res.Credential.ReferenceID)

	stored := memCompletions{f.store}.get(res.CompletionID)
	assert.Equal(t, entities.CredentialStatusIssued, stored.CredentialStatus)
	require.NotNil(t, stored.CredentialID)
	assert.Equal(t, res.Credential.ID, *stored.CredentialID)
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.QuestCompletions.WithLabelValues("issued")))
}

func TestApproveSubmission_RepeatDoesNotMintAgain(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(&fakeGateway{ready: true})
	quest := f.addQuest("Docs quest")
	u1 := f.addUserWithWallet(walletU1)

	first, err := f.quests.ApproveSubmission(ctx, quest.ID, u1, f.owner.ID)
	require.NoError(t, err)
	second, err := f.quests.ApproveSubmission(ctx, quest.ID, u1, f.owner.ID)
	require.NoError(t, err)

	require.NotNil(t, second.Credential)
	assert.Equal(t, first.CompletionID, second.CompletionID)
	assert.Equal(t, first.Credential.ID, second.Credential.ID)
	assert.Equal(t, int64(1), f.gateway.minted.Load())
}

func TestApproveSubmission_ConcurrentApprovalsMintOnce(t *testing.T) {
	f := newLedgerFixture(&fakeGateway{ready: true})
	quest := f.addQuest("Docs quest")
	u1 := f.addUserWithWallet(walletU1)

	result := concurrent.RunConcurrent(10, func(int) error {
		_, err := f.quests.ApproveSubmission(context.Background(), quest.ID, u1, f.owner.ID)
		return err
	})

	assert.Equal(t, int64(10), result.Successes)
	assert.Equal(t, int64(1), f.gateway.minted.Load())
	assert.Len(t, f.store.completions, 1)
	assert.Equal(t, 1, memCredentials{f.store}.count())
}

func TestApproveSubmission_MintFailureLeavesClaimPending(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{
		ready:   true,
		mintErr: domainerrors.WithTxHash(domainerrors.ErrMintOutcomeUnknown, "0xbeef"),
	}
	f := newLedgerFixture(gateway)
	quest := f.addQuest("Docs quest")
	u1 := f.addUserWithWallet(walletU1)

	res, err := f.quests.ApproveSubmission(ctx, quest.ID, u1, f.owner.ID)
	require.NoError(t, err)
	assert.Nil(t, res.Credential)
	assert.Equal(t, "mint outcome unknown, awaiting reconciliation (tx 0xbeef)", res.PendingReason)

	stored := memCompletions{f.store}.get(res.CompletionID)
	assert.Equal(t, entities.CredentialStatusPending, stored.CredentialStatus)
	assert.Equal(t, "0xbeef", stored.MintTxHash.String)

	// a retry reports the pending claim instead of minting again
	gateway.mintErr = nil
	again, err := f.quests.ApproveSubmission(ctx, quest.ID, u1, f.owner.ID)
	require.NoError(t, err)
	assert.Nil(t, again.Credential)
	assert.Equal(t, res.PendingReason, again.PendingReason)
	assert.Zero(t, gateway.minted.Load())

	ref := entities.QuestReferenceID(quest.ID, u1)
	gateway.onChain = map[string]*entities.OnchainCredential{
		ref: {TokenID: "40", Kind: entities.CredentialKindQuestCompletion, ReferenceID: ref},
	}
	n, err := f.quests.ReconcilePending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	cred, err := memCredentials{f.store}.GetByReference(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, "0xbeef", cred.TransactionHash)
	assert.Equal(t, uint64(77), cred.BlockNumber)
	assert.Equal(t, entities.CredentialStatusIssued, memCompletions{f.store}.get(res.CompletionID).CredentialStatus)
}

func TestApproveSubmission_ReconcileDuringMintLeavesIssued(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeGateway{ready: true}
	f := newLedgerFixture(gateway)
	quest := f.addQuest("Docs quest")
	u1 := f.addUserWithWallet(walletU1)

	gateway.onMinted = func(ctx context.Context, req entities.MintRequest, result *entities.MintResult) {
		gateway.onChain = map[string]*entities.OnchainCredential{
			req.ReferenceID: {TokenID: result.TokenID, Kind: req.Kind, ReferenceID: req.ReferenceID},
		}
		n, err := f.quests.ReconcilePending(ctx, 10)
		require.NoError(t, err)
		require.Equal(t, 1, n)
	}

	res, err := f.quests.ApproveSubmission(ctx, quest.ID, u1, f.owner.ID)
	require.NoError(t, err)
	require.NotNil(t, res.Credential)
	assert.Equal(t, entities.CredentialStatusIssued, memCompletions{f.store}.get(res.CompletionID).CredentialStatus)
	assert.Equal(t, 1, memCredentials{f.store}.count())
}

func TestApproveSubmission_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(&fakeGateway{ready: true})
	quest := f.addQuest("Docs quest")
	u1 := f.addUserWithWallet(walletU1)

	_, err := f.quests.ApproveSubmission(ctx, quest.ID, u1, uuid.New())
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = f.quests.ApproveSubmission(ctx, uuid.New(), u1, f.owner.ID)
	assert.ErrorIs(t, err, domainerrors.ErrQuestNotFound)

	noWallet := uuid.New()
	_, err = f.quests.ApproveSubmission(ctx, quest.ID, noWallet, f.owner.ID)
	assert.ErrorIs(t, err, domainerrors.ErrNoWalletAvailable)

	assert.Empty(t, f.store.completions)
	assert.Zero(t, f.gateway.minted.Load())
}
