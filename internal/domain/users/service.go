// Package users implements the unified admin/team account workflows:
// login, admin bootstrap, team invitations, and the OTP-gated password
// setup that activates an invited account.
package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/expotrade/server/internal/auth"
	"github.com/expotrade/server/internal/otp"
	"github.com/expotrade/server/internal/sanitize"
	"github.com/expotrade/server/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidRole        = errors.New("role must be manager or sales")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrNameRequired       = errors.New("name is required")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordTooShort   = errors.New("password must be at least 8 characters")
	ErrTokenNotFound      = errors.New("invalid or expired setup token")
	ErrTokenExpired       = errors.New("setup token has expired")
	ErrEmailMismatch      = errors.New("email does not match the invited account")
	ErrOTPNotFound        = errors.New("no verification code found for this email")
	ErrOTPExpired         = errors.New("verification code has expired")
	ErrOTPMismatch        = errors.New("incorrect verification code")
	ErrTeamMemberNotFound = errors.New("team member not found")
)

// setupTokenTTL bounds how long an invitation link stays usable.
const setupTokenTTL = 24 * time.Hour

const minPasswordLength = 8

// Mailer is the slice of the email service this package needs.
type Mailer interface {
	SendInvitation(ctx context.Context, to, name, link string) error
	SendOTP(ctx context.Context, to, code string) error
}

type Service struct {
	repo        storage.Repository
	tokens      *auth.TokenManager
	otpStore    otp.Store
	mailer      Mailer
	frontendURL string
	otpTTL      time.Duration
	logger      zerolog.Logger
}

func NewService(
	repo storage.Repository,
	tokens *auth.TokenManager,
	otpStore otp.Store,
	mailer Mailer,
	frontendURL string,
	otpTTL time.Duration,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		otpStore:    otpStore,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		otpTTL:      otpTTL,
		logger:      logger.With().Str("component", "users").Logger(),
	}
}

// Account is the user view returned alongside issued tokens.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

// TeamMember is a row of the team listing. Status is derived: an invited
// member is "inactive" until they complete password setup.
type TeamMember struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Status   string `json:"status"`
}

func accountOf(user storage.User) Account {
	return Account{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Name:     user.Name,
		Role:     string(auth.EffectiveRole(user.Role, user.IsSuperuser)),
	}
}

// Login authenticates by username and password and issues a token pair.
// All failure modes collapse into ErrInvalidCredentials so responses do
// not reveal which part was wrong.
func (s *Service) Login(ctx context.Context, username, password string) (auth.TokenPair, Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return auth.TokenPair{}, Account{}, ErrInvalidCredentials
	}

	user, err := s.repo.Users().GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return auth.TokenPair{}, Account{}, ErrInvalidCredentials
		}
		return auth.TokenPair{}, Account{}, fmt.Errorf("lookup user: %w", err)
	}

	if !user.IsActive || !auth.CheckPassword(user.PasswordHash, password) {
		return auth.TokenPair{}, Account{}, ErrInvalidCredentials
	}

	if err := s.repo.Users().UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to record last login")
	}

	account := accountOf(user)
	pair, err := s.tokens.GeneratePair(user.ID, user.Username, user.Email, account.Role)
	if err != nil {
		return auth.TokenPair{}, Account{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("username", user.Username).Msg("user logged in")
	return pair, account, nil
}

// BootstrapAdmin ensures the default superuser exists. It is idempotent:
// if the username is already taken nothing changes. An empty email gets a
// placeholder address on the local domain.
func (s *Service) BootstrapAdmin(ctx context.Context, username, email, password string) (created bool, err error) {
	_, err = s.repo.Users().GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("lookup admin user: %w", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("hash admin password: %w", err)
	}

	if email == "" {
		email = username + "@expotrade.local"
	}

	_, err = s.repo.Users().Create(ctx, storage.User{
		Username:      username,
		Email:         email,
		Name:          "Administrator",
		PasswordHash:  hash,
		Role:          string(auth.RoleAdmin),
		IsSuperuser:   true,
		IsActive:      true,
		IsPasswordSet: true,
	})
	if err != nil {
		return false, fmt.Errorf("create admin user: %w", err)
	}

	s.logger.Info().Str("username", username).Msg("bootstrap admin created")
	return true, nil
}

type InviteParams struct {
	Name  string
	Email string
	Role  string
}

// Invite creates an inactive placeholder account for a new team member and
// emails them a password-setup link. The placeholder username is replaced
// when the invitee finishes setup.
func (s *Service) Invite(ctx context.Context, params InviteParams) (TeamMember, error) {
	name := sanitize.Text(params.Name)
	if name == "" {
		return TeamMember{}, ErrNameRequired
	}

	address, err := normalizeEmail(params.Email)
	if err != nil {
		return TeamMember{}, err
	}

	role := auth.NormalizeRole(params.Role)
	if !auth.IsTeamRole(string(role)) {
		return TeamMember{}, ErrInvalidRole
	}

	if _, err := s.repo.Users().GetByEmail(ctx, address); err == nil {
		return TeamMember{}, ErrEmailTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return TeamMember{}, fmt.Errorf("check email: %w", err)
	}

	placeholder := "pending_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	setupToken := strings.ReplaceAll(uuid.NewString(), "-", "")

	var user storage.User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx storage.Repository) error {
		var txErr error
		user, txErr = tx.Users().Create(ctx, storage.User{
			Username: placeholder,
			Email:    address,
			Name:     name,
			Role:     string(role),
			IsActive: false,
		})
		if txErr != nil {
			return fmt.Errorf("create invited user: %w", txErr)
		}

		_, txErr = tx.Tokens().Create(ctx, storage.PasswordSetupToken{
			UserID: user.ID,
			Token:  setupToken,
		})
		if txErr != nil {
			return fmt.Errorf("create setup token: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return TeamMember{}, err
	}

	link := s.frontendURL + "/create-password?token=" + setupToken
	if err := s.mailer.SendInvitation(ctx, address, name, link); err != nil {
		return TeamMember{}, fmt.Errorf("send invitation: %w", err)
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", address).
		Str("role", string(role)).
		Msg("team member invited")

	return memberOf(user), nil
}

// SendOTP issues a fresh verification code for an invited account. The
// email must match the account the setup token was minted for. A newer
// code replaces any earlier one for the same address.
func (s *Service) SendOTP(ctx context.Context, token, email string) error {
	user, err := s.userForSetupToken(ctx, token)
	if err != nil {
		return err
	}

	address, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if address != user.Email {
		return ErrEmailMismatch
	}

	code, err := otp.GenerateCode()
	if err != nil {
		return err
	}

	if err := s.otpStore.Set(ctx, address, otp.Challenge{Code: code, CreatedAt: time.Now()}); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.mailer.SendOTP(ctx, address, code); err != nil {
		return fmt.Errorf("send otp: %w", err)
	}

	s.logger.Info().Str("email", address).Msg("otp sent")
	return nil
}

// VerifyOTP checks a code without consuming it, so the same code still
// validates during the final password-creation step. Expired codes are
// discarded on sight.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	address, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	return s.checkOTP(ctx, address, code)
}

func (s *Service) checkOTP(ctx context.Context, address, code string) error {
	challenge, err := s.otpStore.Get(ctx, address)
	if err != nil {
		if errors.Is(err, otp.ErrNotFound) {
			return ErrOTPNotFound
		}
		return fmt.Errorf("load otp: %w", err)
	}

	if time.Since(challenge.CreatedAt) > s.otpTTL {
		if delErr := s.otpStore.Delete(ctx, address); delErr != nil {
			s.logger.Warn().Err(delErr).Str("email", address).Msg("failed to discard expired otp")
		}
		return ErrOTPExpired
	}

	if challenge.Code != strings.TrimSpace(code) {
		return ErrOTPMismatch
	}
	return nil
}

type CreatePasswordParams struct {
	Token    string
	Email    string
	OTP      string
	Username string
	Password string
}

// CreatePassword finishes the invite workflow: it re-validates the OTP and
// setup token, claims the chosen username, sets the password, activates the
// account, and issues a first token pair.
func (s *Service) CreatePassword(ctx context.Context, params CreatePasswordParams) (auth.TokenPair, Account, error) {
	address, err := normalizeEmail(params.Email)
	if err != nil {
		return auth.TokenPair{}, Account{}, err
	}

	if err := s.checkOTP(ctx, address, params.OTP); err != nil {
		return auth.TokenPair{}, Account{}, err
	}

	user, err := s.userForSetupToken(ctx, params.Token)
	if err != nil {
		return auth.TokenPair{}, Account{}, err
	}
	if address != user.Email {
		return auth.TokenPair{}, Account{}, ErrEmailMismatch
	}

	username := strings.TrimSpace(params.Username)
	if username == "" {
		return auth.TokenPair{}, Account{}, ErrUsernameRequired
	}
	if len(params.Password) < minPasswordLength {
		return auth.TokenPair{}, Account{}, ErrPasswordTooShort
	}

	taken, err := s.repo.Users().UsernameTakenByOther(ctx, username, user.ID)
	if err != nil {
		return auth.TokenPair{}, Account{}, fmt.Errorf("check username: %w", err)
	}
	if taken {
		return auth.TokenPair{}, Account{}, ErrUsernameTaken
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return auth.TokenPair{}, Account{}, fmt.Errorf("hash password: %w", err)
	}

	var activated storage.User
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx storage.Repository) error {
		var txErr error
		activated, txErr = tx.Users().FinalizePasswordSetup(ctx, storage.FinalizePasswordSetupParams{
			UserID:       user.ID,
			Username:     username,
			PasswordHash: hash,
		})
		return txErr
	})
	if err != nil {
		return auth.TokenPair{}, Account{}, fmt.Errorf("finalize password setup: %w", err)
	}

	if err := s.otpStore.Delete(ctx, address); err != nil {
		s.logger.Warn().Err(err).Str("email", address).Msg("failed to consume otp")
	}

	account := accountOf(activated)
	pair, err := s.tokens.GeneratePair(activated.ID, activated.Username, activated.Email, account.Role)
	if err != nil {
		return auth.TokenPair{}, Account{}, fmt.Errorf("issue tokens: %w", err)
	}

	s.logger.Info().
		Str("user_id", activated.ID).
		Str("username", activated.Username).
		Msg("password setup completed")

	return pair, account, nil
}

// ListTeam returns manager and sales accounts, newest first.
func (s *Service) ListTeam(ctx context.Context) ([]TeamMember, error) {
	users, err := s.repo.Users().ListTeam(ctx)
	if err != nil {
		return nil, fmt.Errorf("list team: %w", err)
	}

	members := make([]TeamMember, 0, len(users))
	for _, user := range users {
		members = append(members, memberOf(user))
	}
	return members, nil
}

// DeleteTeamMember removes a manager or sales account. Admin accounts are
// out of scope for this operation and report as not found.
func (s *Service) DeleteTeamMember(ctx context.Context, id string) error {
	err := s.repo.Users().DeleteTeamMember(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return ErrTeamMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("delete team member: %w", err)
	}

	s.logger.Info().Str("user_id", id).Msg("team member deleted")
	return nil
}

func (s *Service) userForSetupToken(ctx context.Context, token string) (storage.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return storage.User{}, ErrTokenNotFound
	}

	record, err := s.repo.Tokens().GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, ErrTokenNotFound
		}
		return storage.User{}, fmt.Errorf("lookup setup token: %w", err)
	}

	if time.Since(record.CreatedAt) > setupTokenTTL {
		return storage.User{}, ErrTokenExpired
	}

	user, err := s.repo.Users().GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.User{}, ErrTokenNotFound
		}
		return storage.User{}, fmt.Errorf("lookup invited user: %w", err)
	}
	return user, nil
}

// The admin frontend only understands "active" and "inactive"; invitees
// who have not finished password setup report as inactive.
func memberOf(user storage.User) TeamMember {
	status := "inactive"
	if user.IsPasswordSet {
		status = "active"
	}
	return TeamMember{
		ID:       user.ID,
		Username: user.Username,
		Name:     user.Name,
		Email:    user.Email,
		Role:     user.Role,
		Status:   status,
	}
}

func normalizeEmail(address string) (string, error) {
	address = strings.ToLower(strings.TrimSpace(address))
	if address == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(address); err != nil {
		return "", ErrInvalidEmail
	}
	return address, nil
}
