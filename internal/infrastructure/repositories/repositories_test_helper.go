package repositories

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err, "open sqlite")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// sqlite serializes writers; one connection keeps concurrent tests deterministic
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createUserTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE events (
		id TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		location TEXT,
		starts_at DATETIME,
		created_at DATETIME
	);`)
}

func createWalletTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE wallets (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		address TEXT NOT NULL,
		is_external BOOLEAN NOT NULL DEFAULT false,
		encrypted_private_key TEXT,
		chain_id INTEGER,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX uq_wallets_user_id ON wallets(user_id);`)
	mustExec(t, db, `CREATE UNIQUE INDEX uq_wallets_address ON wallets(address);`)
}

func createRedemptionTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE redemption_codes (
		id TEXT PRIMARY KEY,
		code TEXT NOT NULL,
		owner_event_id TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT true,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX uq_redemption_codes_code ON redemption_codes(code);`)
	mustExec(t, db, `CREATE TABLE redemptions (
		id TEXT PRIMARY KEY,
		code_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		credential_status TEXT NOT NULL,
		pending_reason TEXT,
		mint_tx_hash TEXT,
		credential_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX uq_redemptions_code_user ON redemptions(code_id, user_id);`)
}

func createQuestTables(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE quests (
		id TEXT PRIMARY KEY,
		owner_user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		reward_amount TEXT,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE TABLE quest_completions (
		id TEXT PRIMARY KEY,
		quest_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		credential_status TEXT NOT NULL,
		pending_reason TEXT,
		mint_tx_hash TEXT,
		credential_id TEXT,
		created_at DATETIME,
		updated_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX uq_quest_completions_quest_user ON quest_completions(quest_id, user_id);`)
}

func createCredentialTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE issued_credentials (
		id TEXT PRIMARY KEY,
		token_id TEXT NOT NULL,
		contract_address TEXT NOT NULL,
		metadata_uri TEXT NOT NULL,
		owner_wallet_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		reference_id TEXT NOT NULL,
		transaction_hash TEXT NOT NULL,
		block_number INTEGER,
		created_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX uq_issued_credentials_reference ON issued_credentials(reference_id);`)
}

func seedUser(t *testing.T, db *gorm.DB, id uuid.UUID, email string) {
	mustExec(t, db, `INSERT INTO users (id, email, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), email, "User "+email, time.Now(), time.Now())
}

func seedEvent(t *testing.T, db *gorm.DB, id, ownerID uuid.UUID, title string) {
	mustExec(t, db, `INSERT INTO events (id, owner_user_id, title, location, starts_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id.String(), ownerID.String(), title, "Jakarta", time.Now(), time.Now())
}
