// exposes a Store interface that is passed to API handlers and the engine
package db

import (
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/soundcue/soundcue/internal/model"
)

// ErrNotFound is returned when an update or delete matched no rows.
var ErrNotFound = errors.New("not found")

type Store interface {
	// user functions
	CreateUser(email, hashedPassword string, name *string) (int, error)
	GetUserByEmail(email string) (*model.User, error)
	GetUserByID(id int) (*model.User, error)
	UpdateUserProfile(id int, email string, name *string) error

	// linked player account functions
	UpsertSpotifyAccount(userID int, spotifyUserID string, displayName *string, refreshToken, scope string) error
	GetSpotifyAccountByUserID(userID int) (*model.SpotifyAccount, error)
	GetSpotifyAccountByOwner(spotifyUserID string) (*model.SpotifyAccount, error)
	UnlinkSpotifyAccount(userID int) error

	// schedule functions
	CreateSchedule(p NewScheduleParams) (model.Schedule, error)
	GetSchedule(scheduleID int, owner string) (model.Schedule, error)
	ListSchedules(owner string) ([]model.Schedule, error)
	UpdateSchedule(scheduleID int, owner string, p NewScheduleParams) (model.Schedule, error)
	DeleteSchedule(scheduleID int, owner string) error
	ToggleScheduleActive(scheduleID int, owner string) (model.Schedule, error)

	// engine functions
	GetActiveSchedules(ctx context.Context) ([]model.Schedule, error)
	RecordStart(ctx context.Context, scheduleID int, firedAt time.Time, markOneShotDone bool) error
}

type pgStore struct {
	db *sqlx.DB
}

// compile-time check that pgStore implements Store
var _ Store = (*pgStore)(nil)

func NewStore(database *sqlx.DB) Store {
	if database == nil {
		database = DB
	}
	return &pgStore{db: database}
}

func (s *pgStore) CreateUser(email, hashedPassword string, name *string) (int, error) {
	return CreateUser(email, hashedPassword, name)
}
func (s *pgStore) GetUserByEmail(email string) (*model.User, error) { return GetUserByEmail(email) }
func (s *pgStore) GetUserByID(id int) (*model.User, error)         { return GetUserByID(id) }
func (s *pgStore) UpdateUserProfile(id int, email string, name *string) error {
	return UpdateUserProfile(id, email, name)
}

func (s *pgStore) UpsertSpotifyAccount(userID int, spotifyUserID string, displayName *string, refreshToken, scope string) error {
	return UpsertSpotifyAccount(userID, spotifyUserID, displayName, refreshToken, scope)
}
func (s *pgStore) GetSpotifyAccountByUserID(userID int) (*model.SpotifyAccount, error) {
	return GetSpotifyAccountByUserID(userID)
}
func (s *pgStore) GetSpotifyAccountByOwner(spotifyUserID string) (*model.SpotifyAccount, error) {
	return GetSpotifyAccountByOwner(spotifyUserID)
}
func (s *pgStore) UnlinkSpotifyAccount(userID int) error { return UnlinkSpotifyAccount(userID) }

func (s *pgStore) CreateSchedule(p NewScheduleParams) (model.Schedule, error) {
	return CreateSchedule(p)
}
func (s *pgStore) GetSchedule(scheduleID int, owner string) (model.Schedule, error) {
	return GetSchedule(scheduleID, owner)
}
func (s *pgStore) ListSchedules(owner string) ([]model.Schedule, error) {
	return ListSchedules(owner)
}
func (s *pgStore) UpdateSchedule(scheduleID int, owner string, p NewScheduleParams) (model.Schedule, error) {
	return UpdateSchedule(scheduleID, owner, p)
}
func (s *pgStore) DeleteSchedule(scheduleID int, owner string) error {
	return DeleteSchedule(scheduleID, owner)
}
func (s *pgStore) ToggleScheduleActive(scheduleID int, owner string) (model.Schedule, error) {
	return ToggleScheduleActive(scheduleID, owner)
}

func (s *pgStore) GetActiveSchedules(ctx context.Context) ([]model.Schedule, error) {
	return GetActiveSchedules(ctx)
}
func (s *pgStore) RecordStart(ctx context.Context, scheduleID int, firedAt time.Time, markOneShotDone bool) error {
	return RecordStart(ctx, scheduleID, firedAt, markOneShotDone)
}
