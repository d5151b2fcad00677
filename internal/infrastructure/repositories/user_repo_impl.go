package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"soulbound.backend/internal/domain/entities"
	domainerrors "soulbound.backend/internal/domain/errors"
	"soulbound.backend/internal/infrastructure/models"
	"soulbound.backend/pkg/utils"
)

// UserRepository implements user data operations
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entities.User) error {
	if user.ID == uuid.Nil {
		user.ID = utils.GenerateUUIDv7()
	}
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	m := &models.User{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return err
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	var m models.User
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toUserEntity(&m), nil
}

func toUserEntity(m *models.User) *entities.User {
	return &entities.User{
		ID:        m.ID,
		Email:     m.Email,
		Name:      m.Name,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// EventRepository implements event reads
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *entities.Event) error {
	if event.ID == uuid.Nil {
		event.ID = utils.GenerateUUIDv7()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	m := &models.Event{
		ID:          event.ID,
		OwnerUserID: event.OwnerUserID,
		Title:       event.Title,
		Location:    event.Location,
		StartsAt:    event.StartsAt,
		CreatedAt:   event.CreatedAt,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// GetByID gets an event with its owner
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.Event, error) {
	var m models.Event
	if err := GetDB(ctx, r.db).Preload("Owner").Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrEventNotFound
		}
		return nil, err
	}
	return toEventEntity(&m), nil
}

func toEventEntity(m *models.Event) *entities.Event {
	e := &entities.Event{
		ID:          m.ID,
		OwnerUserID: m.OwnerUserID,
		Title:       m.Title,
		Location:    m.Location,
		StartsAt:    m.StartsAt,
		CreatedAt:   m.CreatedAt,
	}
	if m.Owner != nil {
		e.Owner = toUserEntity(m.Owner)
	}
	return e
}
