package users

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/expotrade/server/internal/auth"
	"github.com/expotrade/server/internal/otp"
	"github.com/expotrade/server/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) Create(ctx context.Context, user storage.User) (storage.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(storage.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (storage.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(storage.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (storage.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(storage.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (storage.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(storage.User), args.Error(1)
}

func (m *mockUserRepo) UsernameTakenByOther(ctx context.Context, username, excludeUserID string) (bool, error) {
	args := m.Called(ctx, username, excludeUserID)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) ListTeam(ctx context.Context) ([]storage.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]storage.User), args.Error(1)
}

func (m *mockUserRepo) DeleteTeamMember(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockUserRepo) FinalizePasswordSetup(ctx context.Context, params storage.FinalizePasswordSetupParams) (storage.User, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(storage.User), args.Error(1)
}

type mockTokenRepo struct{ mock.Mock }

func (m *mockTokenRepo) Create(ctx context.Context, token storage.PasswordSetupToken) (storage.PasswordSetupToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(storage.PasswordSetupToken), args.Error(1)
}

func (m *mockTokenRepo) GetByToken(ctx context.Context, token string) (storage.PasswordSetupToken, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(storage.PasswordSetupToken), args.Error(1)
}

func (m *mockTokenRepo) DeleteForUser(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// fakeRepo aggregates the mocks and runs WithTx callbacks against itself.
type fakeRepo struct {
	users  *mockUserRepo
	tokens *mockTokenRepo
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: &mockUserRepo{}, tokens: &mockTokenRepo{}}
}

func (f *fakeRepo) Users() storage.UserRepository           { return f.users }
func (f *fakeRepo) Tokens() storage.TokenRepository         { return f.tokens }
func (f *fakeRepo) Exhibitors() storage.ExhibitorRepository { return nil }
func (f *fakeRepo) Visitors() storage.VisitorRepository     { return nil }
func (f *fakeRepo) Categories() storage.CategoryRepository  { return nil }
func (f *fakeRepo) Events() storage.EventRepository         { return nil }
func (f *fakeRepo) Gallery() storage.GalleryRepository      { return nil }

func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, storage.Repository) error) error {
	return fn(ctx, f)
}

type fakeMailer struct {
	invitations []string
	links       []string
	otps        map[string]string
	failSend    error
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{otps: make(map[string]string)}
}

func (f *fakeMailer) SendInvitation(_ context.Context, to, _ string, link string) error {
	if f.failSend != nil {
		return f.failSend
	}
	f.invitations = append(f.invitations, to)
	f.links = append(f.links, link)
	return nil
}

func (f *fakeMailer) SendOTP(_ context.Context, to, code string) error {
	if f.failSend != nil {
		return f.failSend
	}
	f.otps[to] = code
	return nil
}

// --- fixtures ---

func newTestService(repo *fakeRepo, store otp.Store, mailer Mailer) *Service {
	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour, "expotrade-test")
	return NewService(repo, tokens, store, mailer, "https://admin.expotrade.events/", 5*time.Minute, zerolog.Nop())
}

func activeUser(t *testing.T, password string) storage.User {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return storage.User{
		ID:            "u-1",
		Username:      "jordan",
		Email:         "jordan@example.com",
		Name:          "Jordan",
		PasswordHash:  hash,
		Role:          "manager",
		IsActive:      true,
		IsPasswordSet: true,
	}
}

// --- login ---

func TestLogin_Success(t *testing.T) {
	repo := newFakeRepo()
	user := activeUser(t, "hunter2secret")
	repo.users.On("GetByUsername", mock.Anything, "jordan").Return(user, nil)
	repo.users.On("UpdateLastLogin", mock.Anything, "u-1").Return(nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	pair, account, err := svc.Login(context.Background(), "jordan", "hunter2secret")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.NotEmpty(t, pair.Refresh)
	assert.Equal(t, "manager", account.Role)
	repo.users.AssertExpectations(t)
}

func TestLogin_WrongPassword(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("GetByUsername", mock.Anything, "jordan").Return(activeUser(t, "hunter2secret"), nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	_, _, err := svc.Login(context.Background(), "jordan", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("GetByUsername", mock.Anything, "ghost").Return(storage.User{}, storage.ErrNotFound)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	_, _, err := svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	repo := newFakeRepo()
	user := activeUser(t, "hunter2secret")
	user.IsActive = false
	repo.users.On("GetByUsername", mock.Anything, "jordan").Return(user, nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	_, _, err := svc.Login(context.Background(), "jordan", "hunter2secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_SuperuserPresentsAsAdmin(t *testing.T) {
	repo := newFakeRepo()
	user := activeUser(t, "hunter2secret")
	user.Role = "sales"
	user.IsSuperuser = true
	repo.users.On("GetByUsername", mock.Anything, "jordan").Return(user, nil)
	repo.users.On("UpdateLastLogin", mock.Anything, "u-1").Return(nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	pair, account, err := svc.Login(context.Background(), "jordan", "hunter2secret")
	require.NoError(t, err)
	assert.Equal(t, "admin", account.Role)

	tokens := auth.NewTokenManager("test-secret", time.Hour, 24*time.Hour, "expotrade-test")
	claims, err := tokens.ValidateAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Role)
}

// --- bootstrap ---

func TestBootstrapAdmin_CreatesWhenAbsent(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("GetByUsername", mock.Anything, "admin").Return(storage.User{}, storage.ErrNotFound)
	repo.users.On("Create", mock.Anything, mock.MatchedBy(func(u storage.User) bool {
		return u.Username == "admin" && u.Email == "admin@expotrade.local" &&
			u.IsSuperuser && u.IsActive && u.IsPasswordSet && u.Role == "admin"
	})).Return(storage.User{ID: "admin-1"}, nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	created, err := svc.BootstrapAdmin(context.Background(), "admin", "", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	repo.users.AssertExpectations(t)
}

func TestBootstrapAdmin_UsesConfiguredEmail(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("GetByUsername", mock.Anything, "admin").Return(storage.User{}, storage.ErrNotFound)
	repo.users.On("Create", mock.Anything, mock.MatchedBy(func(u storage.User) bool {
		return u.Email == "ops@expotrade.events"
	})).Return(storage.User{ID: "admin-1"}, nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	created, err := svc.BootstrapAdmin(context.Background(), "admin", "ops@expotrade.events", "admin123")
	require.NoError(t, err)
	assert.True(t, created)
	repo.users.AssertExpectations(t)
}

func TestBootstrapAdmin_IdempotentWhenPresent(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("GetByUsername", mock.Anything, "admin").Return(storage.User{ID: "admin-1"}, nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	created, err := svc.BootstrapAdmin(context.Background(), "admin", "", "admin123")
	require.NoError(t, err)
	assert.False(t, created)
	repo.users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// --- invite ---

func TestInvite_Success(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("GetByEmail", mock.Anything, "new@example.com").Return(storage.User{}, storage.ErrNotFound)
	repo.users.On("Create", mock.Anything, mock.MatchedBy(func(u storage.User) bool {
		return strings.HasPrefix(u.Username, "pending_") &&
			len(u.Username) == len("pending_")+8 &&
			u.Email == "new@example.com" &&
			u.Role == "sales" &&
			!u.IsActive
	})).Return(storage.User{ID: "u-9", Username: "pending_deadbeef", Email: "new@example.com", Name: "Casey", Role: "sales"}, nil)
	repo.tokens.On("Create", mock.Anything, mock.MatchedBy(func(tok storage.PasswordSetupToken) bool {
		return tok.UserID == "u-9" && len(tok.Token) == 32
	})).Return(storage.PasswordSetupToken{ID: "t-1"}, nil)

	mailer := newFakeMailer()
	svc := newTestService(repo, otp.NewMemoryStore(), mailer)

	member, err := svc.Invite(context.Background(), InviteParams{Name: "Casey", Email: "New@Example.com", Role: "Sales"})
	require.NoError(t, err)
	assert.Equal(t, "inactive", member.Status)
	require.Len(t, mailer.links, 1)
	assert.True(t, strings.HasPrefix(mailer.links[0], "https://admin.expotrade.events/create-password?token="))
	repo.users.AssertExpectations(t)
	repo.tokens.AssertExpectations(t)
}

func TestInvite_EmailTaken(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("GetByEmail", mock.Anything, "taken@example.com").Return(storage.User{ID: "u-1"}, nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	_, err := svc.Invite(context.Background(), InviteParams{Name: "Casey", Email: "taken@example.com", Role: "sales"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestInvite_RejectsAdminRole(t *testing.T) {
	svc := newTestService(newFakeRepo(), otp.NewMemoryStore(), newFakeMailer())

	_, err := svc.Invite(context.Background(), InviteParams{Name: "Casey", Email: "new@example.com", Role: "admin"})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestInvite_RequiresNameAndValidEmail(t *testing.T) {
	svc := newTestService(newFakeRepo(), otp.NewMemoryStore(), newFakeMailer())

	_, err := svc.Invite(context.Background(), InviteParams{Name: "  ", Email: "new@example.com", Role: "sales"})
	assert.ErrorIs(t, err, ErrNameRequired)

	_, err = svc.Invite(context.Background(), InviteParams{Name: "Casey", Email: "not-an-email", Role: "sales"})
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

// --- otp flow ---

func invitedFixture(repo *fakeRepo, tokenAge time.Duration) storage.User {
	user := storage.User{
		ID:       "u-9",
		Username: "pending_deadbeef",
		Email:    "new@example.com",
		Name:     "Casey",
		Role:     "sales",
	}
	repo.tokens.On("GetByToken", mock.Anything, "setup-token").Return(storage.PasswordSetupToken{
		ID:        "t-1",
		UserID:    user.ID,
		Token:     "setup-token",
		CreatedAt: time.Now().Add(-tokenAge),
	}, nil)
	repo.users.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	return user
}

func TestSendOTP_StoresAndMails(t *testing.T) {
	repo := newFakeRepo()
	invitedFixture(repo, time.Minute)

	store := otp.NewMemoryStore()
	mailer := newFakeMailer()
	svc := newTestService(repo, store, mailer)

	require.NoError(t, svc.SendOTP(context.Background(), "setup-token", "New@Example.com"))

	challenge, err := store.Get(context.Background(), "new@example.com")
	require.NoError(t, err)
	assert.Len(t, challenge.Code, 6)
	assert.Equal(t, challenge.Code, mailer.otps["new@example.com"])
}

func TestSendOTP_UnknownToken(t *testing.T) {
	repo := newFakeRepo()
	repo.tokens.On("GetByToken", mock.Anything, "missing").Return(storage.PasswordSetupToken{}, storage.ErrNotFound)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	err := svc.SendOTP(context.Background(), "missing", "new@example.com")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestSendOTP_ExpiredToken(t *testing.T) {
	repo := newFakeRepo()
	invitedFixture(repo, 25*time.Hour)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	err := svc.SendOTP(context.Background(), "setup-token", "new@example.com")
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSendOTP_EmailMismatch(t *testing.T) {
	repo := newFakeRepo()
	invitedFixture(repo, time.Minute)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	err := svc.SendOTP(context.Background(), "setup-token", "other@example.com")
	assert.ErrorIs(t, err, ErrEmailMismatch)
}

func TestVerifyOTP_DoesNotConsume(t *testing.T) {
	store := otp.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "new@example.com", otp.Challenge{Code: "123456", CreatedAt: time.Now()}))

	svc := newTestService(newFakeRepo(), store, newFakeMailer())

	require.NoError(t, svc.VerifyOTP(context.Background(), "new@example.com", "123456"))
	require.NoError(t, svc.VerifyOTP(context.Background(), "new@example.com", "123456"), "verification is repeatable")
}

func TestVerifyOTP_Mismatch(t *testing.T) {
	store := otp.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "new@example.com", otp.Challenge{Code: "123456", CreatedAt: time.Now()}))

	svc := newTestService(newFakeRepo(), store, newFakeMailer())

	err := svc.VerifyOTP(context.Background(), "new@example.com", "654321")
	assert.ErrorIs(t, err, ErrOTPMismatch)
}

func TestVerifyOTP_NotFound(t *testing.T) {
	svc := newTestService(newFakeRepo(), otp.NewMemoryStore(), newFakeMailer())

	err := svc.VerifyOTP(context.Background(), "nobody@example.com", "123456")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestVerifyOTP_ExpiredIsDiscarded(t *testing.T) {
	store := otp.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "new@example.com", otp.Challenge{
		Code:      "123456",
		CreatedAt: time.Now().Add(-10 * time.Minute),
	}))

	svc := newTestService(newFakeRepo(), store, newFakeMailer())

	err := svc.VerifyOTP(context.Background(), "new@example.com", "123456")
	assert.ErrorIs(t, err, ErrOTPExpired)

	// The expired challenge is gone: a retry now reports not-found.
	err = svc.VerifyOTP(context.Background(), "new@example.com", "123456")
	assert.ErrorIs(t, err, ErrOTPNotFound)
}

func TestVerifyOTP_JustInsideTTL(t *testing.T) {
	store := otp.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "new@example.com", otp.Challenge{
		Code:      "123456",
		CreatedAt: time.Now().Add(-5*time.Minute + time.Second),
	}))

	svc := newTestService(newFakeRepo(), store, newFakeMailer())

	require.NoError(t, svc.VerifyOTP(context.Background(), "new@example.com", "123456"))
}

// --- create password ---

func createPasswordFixture(t *testing.T, repo *fakeRepo, store otp.Store) CreatePasswordParams {
	t.Helper()
	invitedFixture(repo, time.Minute)
	require.NoError(t, store.Set(context.Background(), "new@example.com", otp.Challenge{Code: "123456", CreatedAt: time.Now()}))
	return CreatePasswordParams{
		Token:    "setup-token",
		Email:    "new@example.com",
		OTP:      "123456",
		Username: "casey",
		Password: "strongpassword",
	}
}

func TestCreatePassword_Success(t *testing.T) {
	repo := newFakeRepo()
	store := otp.NewMemoryStore()
	params := createPasswordFixture(t, repo, store)

	repo.users.On("UsernameTakenByOther", mock.Anything, "casey", "u-9").Return(false, nil)
	repo.users.On("FinalizePasswordSetup", mock.Anything, mock.MatchedBy(func(p storage.FinalizePasswordSetupParams) bool {
		return p.UserID == "u-9" && p.Username == "casey" && p.PasswordHash != "" && p.PasswordHash != "strongpassword"
	})).Return(storage.User{
		ID: "u-9", Username: "casey", Email: "new@example.com", Name: "Casey",
		Role: "sales", IsActive: true, IsPasswordSet: true,
	}, nil)

	svc := newTestService(repo, store, newFakeMailer())

	pair, account, err := svc.CreatePassword(context.Background(), params)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.Access)
	assert.Equal(t, "casey", account.Username)
	assert.Equal(t, "sales", account.Role)

	// OTP is consumed on success.
	_, err = store.Get(context.Background(), "new@example.com")
	assert.ErrorIs(t, err, otp.ErrNotFound)
	repo.users.AssertExpectations(t)
}

func TestCreatePassword_UsernameTaken(t *testing.T) {
	repo := newFakeRepo()
	store := otp.NewMemoryStore()
	params := createPasswordFixture(t, repo, store)

	repo.users.On("UsernameTakenByOther", mock.Anything, "casey", "u-9").Return(true, nil)

	svc := newTestService(repo, store, newFakeMailer())

	_, _, err := svc.CreatePassword(context.Background(), params)
	assert.ErrorIs(t, err, ErrUsernameTaken)

	// Failure leaves the OTP in place for a retry.
	_, err = store.Get(context.Background(), "new@example.com")
	assert.NoError(t, err)
}

func TestCreatePassword_BadOTP(t *testing.T) {
	repo := newFakeRepo()
	store := otp.NewMemoryStore()
	params := createPasswordFixture(t, repo, store)
	params.OTP = "000000"

	svc := newTestService(repo, store, newFakeMailer())

	_, _, err := svc.CreatePassword(context.Background(), params)
	assert.ErrorIs(t, err, ErrOTPMismatch)
}

func TestCreatePassword_ShortPassword(t *testing.T) {
	repo := newFakeRepo()
	store := otp.NewMemoryStore()
	params := createPasswordFixture(t, repo, store)
	params.Password = "short"

	svc := newTestService(repo, store, newFakeMailer())

	_, _, err := svc.CreatePassword(context.Background(), params)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestCreatePassword_EmailMismatch(t *testing.T) {
	repo := newFakeRepo()
	store := otp.NewMemoryStore()
	invitedFixture(repo, time.Minute)
	require.NoError(t, store.Set(context.Background(), "other@example.com", otp.Challenge{Code: "123456", CreatedAt: time.Now()}))

	svc := newTestService(repo, store, newFakeMailer())

	_, _, err := svc.CreatePassword(context.Background(), CreatePasswordParams{
		Token:    "setup-token",
		Email:    "other@example.com",
		OTP:      "123456",
		Username: "casey",
		Password: "strongpassword",
	})
	assert.ErrorIs(t, err, ErrEmailMismatch)
}

// --- team ---

func TestListTeam_DerivesStatus(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("ListTeam", mock.Anything).Return([]storage.User{
		{ID: "u-1", Username: "casey", Role: "sales", IsPasswordSet: true},
		{ID: "u-2", Username: "pending_abc12345", Role: "manager", IsPasswordSet: false},
	}, nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	members, err := svc.ListTeam(context.Background())
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "active", members[0].Status)
	assert.Equal(t, "inactive", members[1].Status, "unfinished setup reports as inactive")
}

func TestDeleteTeamMember_NotFound(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("DeleteTeamMember", mock.Anything, "missing").Return(storage.ErrNotFound)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	err := svc.DeleteTeamMember(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTeamMemberNotFound)
}

func TestDeleteTeamMember_Success(t *testing.T) {
	repo := newFakeRepo()
	repo.users.On("DeleteTeamMember", mock.Anything, "u-1").Return(nil)

	svc := newTestService(repo, otp.NewMemoryStore(), newFakeMailer())

	require.NoError(t, svc.DeleteTeamMember(context.Background(), "u-1"))
}
