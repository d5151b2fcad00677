package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestUnitOfWork_DoCommitAndRollback(t *testing.T) {
	db := newTestDB(t)
	createCredentialTable(t, db)
	u := &UnitOfWorkImpl{db: db}
	repo := NewCredentialRepository(db)
	walletID := uuid.New()

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return repo.Create(ctx, newCredential(walletID, "redemption:commit", time.Time{}))
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Table("issued_credentials").Count(&count).Error)
	require.Equal(t, int64(1), count)

	err = u.Do(context.Background(), func(ctx context.Context) error {
		if err := repo.Create(ctx, newCredential(walletID, "redemption:rollback", time.Time{})); err != nil {
			return err
		}
		return errors.New("force rollback")
	})
	require.Error(t, err)

	require.NoError(t, db.Table("issued_credentials").Count(&count).Error)
	require.Equal(t, int64(1), count, "second insert must be rolled back")
}

func TestUnitOfWork_NestedDoJoinsOuterTransaction(t *testing.T) {
	db := newTestDB(t)
	createCredentialTable(t, db)
	u := &UnitOfWorkImpl{db: db}
	repo := NewCredentialRepository(db)
	walletID := uuid.New()

	err := u.Do(context.Background(), func(ctx context.Context) error {
		outer := GetDB(ctx, db)
		return u.Do(ctx, func(inner context.Context) error {
			require.Same(t, outer, GetDB(inner, db))
			if err := repo.Create(inner, newCredential(walletID, "redemption:nested", time.Time{})); err != nil {
				return err
			}
			return errors.New("inner failure")
		})
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Table("issued_credentials").Count(&count).Error)
	require.Zero(t, count)
}

func TestUnitOfWork_GetDB(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	require.NotNil(t, u.GetDB(context.Background()))

	tx := db.Begin()
	txCtx := context.WithValue(context.Background(), txKey, tx)
	require.Equal(t, tx, u.GetDB(txCtx))
	tx.Rollback()
}

func TestUnitOfWork_DoBeginFailure(t *testing.T) {
	db := newTestDB(t)
	u := &UnitOfWorkImpl{db: db}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	err = u.Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to begin transaction")
}

func TestUnitOfWork_DoCommitFailure_WithHook(t *testing.T) {
	db := newTestDB(t)
	createCredentialTable(t, db)
	u := &UnitOfWorkImpl{db: db}

	origCommit := commitTx
	t.Cleanup(func() { commitTx = origCommit })
	commitTx = func(tx *gorm.DB) error {
		return errors.New("commit failed")
	}

	err := u.Do(context.Background(), func(ctx context.Context) error {
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to commit transaction")
}
