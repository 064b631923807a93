// Package storage defines the persistence models and repository contracts
// implemented by the postgres backend.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist or is out of scope
// for the query (e.g. a team delete aimed at an admin account).
var ErrNotFound = errors.New("record not found")

type User struct {
	ID            string
	Username      string
	Email         string
	Name          string
	PasswordHash  string
	Role          string
	IsSuperuser   bool
	IsActive      bool
	IsPasswordSet bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// PasswordSetupToken gates the inactive → active transition of an invited
// user. Many may exist historically; only the newest is actionable.
type PasswordSetupToken struct {
	ID        string
	UserID    string
	Token     string
	CreatedAt time.Time
}

type ExhibitorRegistration struct {
	ID                string
	CompanyName       string
	ContactPersonName string
	Designation       string
	EmailAddress      string
	ContactNumber     string
	ProductService    string
	CompanyAddress    string
	Status            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type VisitorRegistration struct {
	ID            string
	FirstName     string
	LastName      string
	CompanyName   string
	EmailAddress  string
	ContactNumber string
	Industry      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Category struct {
	ID          string
	Name        string
	Description string
	Icon        string
	ImageKey    string
	ImageURL    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Event struct {
	ID              string
	Title           string
	Location        string
	Venue           string
	StartDate       time.Time
	EndDate         time.Time
	TimeSchedule    string
	ExhibitorsCount string
	BuyersCount     string
	CountriesCount  string
	SectorsCount    string
	IsActive        bool
	Description     string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type GalleryImage struct {
	ID          string
	Title       string
	Description string
	ImageKey    string
	ImageURL    string
	SortOrder   int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FinalizePasswordSetupParams completes the invite workflow for one user:
// real username, password hash, activation flags, and removal of that
// user's setup tokens, applied atomically.
type FinalizePasswordSetupParams struct {
	UserID       string
	Username     string
	PasswordHash string
}

type UserRepository interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	UsernameTakenByOther(ctx context.Context, username, excludeUserID string) (bool, error)
	ListTeam(ctx context.Context) ([]User, error)
	DeleteTeamMember(ctx context.Context, id string) error
	UpdateLastLogin(ctx context.Context, id string) error
	FinalizePasswordSetup(ctx context.Context, params FinalizePasswordSetupParams) (User, error)
}

type TokenRepository interface {
	Create(ctx context.Context, token PasswordSetupToken) (PasswordSetupToken, error)
	GetByToken(ctx context.Context, token string) (PasswordSetupToken, error)
	DeleteForUser(ctx context.Context, userID string) error
}

type ExhibitorRepository interface {
	List(ctx context.Context) ([]ExhibitorRegistration, error)
	Create(ctx context.Context, reg ExhibitorRegistration) (ExhibitorRegistration, error)
	GetByID(ctx context.Context, id string) (ExhibitorRegistration, error)
	Update(ctx context.Context, reg ExhibitorRegistration) (ExhibitorRegistration, error)
	Delete(ctx context.Context, id string) error
}

type VisitorRepository interface {
	List(ctx context.Context) ([]VisitorRegistration, error)
	Create(ctx context.Context, reg VisitorRegistration) (VisitorRegistration, error)
	GetByID(ctx context.Context, id string) (VisitorRegistration, error)
	Update(ctx context.Context, reg VisitorRegistration) (VisitorRegistration, error)
	Delete(ctx context.Context, id string) error
}

type CategoryRepository interface {
	List(ctx context.Context) ([]Category, error)
	Create(ctx context.Context, category Category) (Category, error)
	GetByID(ctx context.Context, id string) (Category, error)
	Update(ctx context.Context, category Category) (Category, error)
	Delete(ctx context.Context, id string) error
}

type EventRepository interface {
	List(ctx context.Context) ([]Event, error)
	Create(ctx context.Context, event Event) (Event, error)
	GetByID(ctx context.Context, id string) (Event, error)
	Update(ctx context.Context, event Event) (Event, error)
	Delete(ctx context.Context, id string) error
}

type GalleryRepository interface {
	List(ctx context.Context) ([]GalleryImage, error)
	Create(ctx context.Context, image GalleryImage) (GalleryImage, error)
	GetByID(ctx context.Context, id string) (GalleryImage, error)
	Update(ctx context.Context, image GalleryImage) (GalleryImage, error)
	Delete(ctx context.Context, id string) error
}

// Repository aggregates the per-table repositories. WithTx runs fn against a
// transactional view; returning an error rolls everything back.
type Repository interface {
	Users() UserRepository
	Tokens() TokenRepository
	Exhibitors() ExhibitorRepository
	Visitors() VisitorRepository
	Categories() CategoryRepository
	Events() EventRepository
	Gallery() GalleryRepository
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
}
