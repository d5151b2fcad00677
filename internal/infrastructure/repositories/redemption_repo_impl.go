package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/gorm"
	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/infrastructure/models"
	"soulbound.backend/pkg/utils"
)

// RedemptionCodeRepository implements redemption code operations
type RedemptionCodeRepository struct {
	db *gorm.DB
}

// NewRedemptionCodeRepository creates a new redemption code repository
func NewRedemptionCodeRepository(db *gorm.DB) *RedemptionCodeRepository {
	return &RedemptionCodeRepository{db: db}
}

// Create creates a new redemption code
func (r *RedemptionCodeRepository) Create(ctx context.Context, code *entities.RedemptionCode) error {
	if code.ID == uuid.Nil {
		code.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	code.CreatedAt = now
	code.UpdatedAt = now

	m := &models.RedemptionCode{
		ID:           code.ID,
		Code:         code.Code,
		OwnerEventID: code.OwnerEventID,
		IsActive:     code.IsActive,
		CreatedAt:    code.CreatedAt,
		UpdatedAt:    code.UpdatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return err
	}
	// gorm skips zero-value bools on insert when a column default exists
	if !code.IsActive {
		return GetDB(ctx, r.db).Model(&models.RedemptionCode{}).Where("id = ?", code.ID).Update("is_active", false).Error
	}
	return nil
}

// GetByCode gets a code together with its event
func (r *RedemptionCodeRepository) GetByCode(ctx context.Context, code string) (*entities.RedemptionCode, error) {
	var m models.RedemptionCode
	if err := GetDB(ctx, r.db).Preload("Event").Where("code = ?", code).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrCodeNotFound
		}
		return nil, err
	}

	out := &entities.RedemptionCode{
		ID:           m.ID,
		Code:         m.Code,
		OwnerEventID: m.OwnerEventID,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Event != nil {
		out.Event = toEventEntity(m.Event)
	}
	return out, nil
}

// Deactivate flips a code to inactive. Deactivating twice is not an error.
func (r *RedemptionCodeRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&models.RedemptionCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_active": false, "updated_at": time.Now()})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCodeNotFound
	}
	return nil
}

// RedemptionRepository implements redemption operations
type RedemptionRepository struct {
	db *gorm.DB
}

// NewRedemptionRepository creates a new redemption repository
func NewRedemptionRepository(db *gorm.DB) *RedemptionRepository {
	return &RedemptionRepository{db: db}
}

// Create inserts a redemption. The (code_id, user_id) unique index decides concurrent races.
func (r *RedemptionRepository) Create(ctx context.Context, redemption *entities.Redemption) error {
	if redemption.ID == uuid.Nil {
		redemption.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	redemption.CreatedAt = now
	redemption.UpdatedAt = now
	if redemption.CredentialStatus == "" {
		redemption.CredentialStatus = entities.CredentialStatusPending
	}

	m := &models.Redemption{
		ID:               redemption.ID,
		CodeID:           redemption.CodeID,
		UserID:           redemption.UserID,
		CredentialStatus: string(redemption.CredentialStatus),
		PendingReason:    redemption.PendingReason.Ptr(),
		MintTxHash:       redemption.MintTxHash.Ptr(),
		CredentialID:     redemption.CredentialID,
		CreatedAt:        redemption.CreatedAt,
		UpdatedAt:        redemption.UpdatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyRedeemed
		}
		return err
	}
	return nil
}

// GetByCodeAndUser gets the redemption of a code by a user
func (r *RedemptionRepository) GetByCodeAndUser(ctx context.Context, codeID, userID uuid.UUID) (*entities.Redemption, error) {
	var m models.Redemption
	err := GetDB(ctx, r.db).Where("code_id = ? AND user_id = ?", codeID, userID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toRedemptionEntity(&m), nil
}

// MarkIssued links the redemption to its credential
func (r *RedemptionRepository) MarkIssued(ctx context.Context, id, credentialID uuid.UUID) error {
	return r.update(ctx, id, map[string]interface{}{
		"credential_status": string(entities.CredentialStatusIssued),
		"credential_id":     credentialID,
		"pending_reason":    nil,
		"updated_at":        time.Now(),
	})
}

// MarkPending records why the credential is not issued yet and, when known,
// the hash of the mint transaction. Rows already ISSUED are left untouched.
func (r *RedemptionRepository) MarkPending(ctx context.Context, id uuid.UUID, reason, txHash string) error {
	return markPending(GetDB(ctx, r.db).Model(&models.Redemption{}), id, reason, txHash)
}

// ListPending returns the oldest redemptions still waiting for a credential
func (r *RedemptionRepository) ListPending(ctx context.Context, limit int) ([]*entities.Redemption, error) {
	var rows []models.Redemption
	err := GetDB(ctx, r.db).
		Where("credential_status = ?", string(entities.CredentialStatusPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]*entities.Redemption, 0, len(rows))
	for i := range rows {
		out = append(out, toRedemptionEntity(&rows[i]))
	}
	return out, nil
}

func (r *RedemptionRepository) update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) error {
	return updateByID(GetDB(ctx, r.db).Model(&models.Redemption{}), id, updates)
}

func updateByID(q *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	result := q.Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// markPending updates a PENDING row of q's table. A row that exists but is no
// longer PENDING is not an error.
func markPending(q *gorm.DB, id uuid.UUID, reason, txHash string) error {
	updates := map[string]interface{}{
		"pending_reason": reason,
		"updated_at":     time.Now(),
	}
	if txHash != "" {
		updates["mint_tx_hash"] = txHash
	}
	result := q.Session(&gorm.Session{}).
		Where("id = ? AND credential_status = ?", id, string(entities.CredentialStatusPending)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}
	var count int64
	if err := q.Session(&gorm.Session{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

func toRedemptionEntity(m *models.Redemption) *entities.Redemption {
	return &entities.Redemption{
		ID:               m.ID,
		CodeID:           m.CodeID,
		UserID:           m.UserID,
		CredentialStatus: entities.CredentialStatus(m.CredentialStatus),
		PendingReason:    null.StringFromPtr(m.PendingReason),
		MintTxHash:       null.StringFromPtr(m.MintTxHash),
		CredentialID:     m.CredentialID,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}
