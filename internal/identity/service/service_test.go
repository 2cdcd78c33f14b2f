package service

import (
	"context"
	"testing"
	"time"

	"salespipe_backend/internal/identity/repository"
	"salespipe_backend/internal/identity/transport"
	"salespipe_backend/platform/apperr"
	"salespipe_backend/platform/httpkit"
	"salespipe_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	users map[string]repository.User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]repository.User{}}
}

func (f *fakeStore) Create(ctx context.Context, params repository.CreateUserParams) (repository.User, error) {
	user := repository.User{
		ID:           uuid.New(),
		Email:        params.Email,
		Name:         params.Name,
		Role:         params.Role,
		PasswordHash: params.PasswordHash,
		CreatedAt:    time.Now(),
	}
	f.users[params.Email] = user
	return user, nil
}

func (f *fakeStore) GetByEmail(ctx context.Context, email string) (repository.User, error) {
	user, ok := f.users[email]
	if !ok {
		return repository.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (repository.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return repository.User{}, repository.ErrNotFound
}

func (f *fakeStore) List(ctx context.Context) ([]repository.User, error) {
	out := make([]repository.User, 0, len(f.users))
	for _, user := range f.users {
		out = append(out, user)
	}
	return out, nil
}

func (f *fakeStore) Count(ctx context.Context) (int, error) {
	return len(f.users), nil
}

type testConfig struct{}

func (testConfig) GetJWTAccessSecret() string       { return "test-secret" }
func (testConfig) GetAccessTokenTTL() time.Duration { return time.Hour }

func newTestService(store *fakeStore) *Service {
	return New(store, testConfig{}, logger.New("test"))
}

func seedUser(t *testing.T, store *fakeStore, email, password, role string) repository.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	user, _ := store.Create(context.Background(), repository.CreateUserParams{
		Email: email, Name: "Test User", Role: role, PasswordHash: string(hash),
	})
	return user
}

func TestLoginIssuesValidToken(t *testing.T) {
	store := newFakeStore()
	user := seedUser(t, store, "rep@example.com", "correct-horse", httpkit.RoleSalesRep)
	svc := newTestService(store)

	resp, err := svc.Login(context.Background(), transport.LoginRequest{
		Email: "rep@example.com", Password: "correct-horse",
	})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims := &httpkit.AccessClaims{}
	parsed, err := jwt.ParseWithClaims(resp.AccessToken, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("subject = %s, want %s", claims.Subject, user.ID)
	}
	if claims.Role != httpkit.RoleSalesRep || claims.Name != "Test User" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "rep@example.com", "correct-horse", httpkit.RoleSalesRep)
	svc := newTestService(store)

	_, err := svc.Login(context.Background(), transport.LoginRequest{
		Email: "rep@example.com", Password: "battery-staple",
	})
	if !apperr.Is(err, apperr.KindUnauthorized) {
		t.Fatalf("err = %v, want KindUnauthorized", err)
	}
}

func TestLoginUnknownEmailSameError(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "rep@example.com", "correct-horse", httpkit.RoleSalesRep)
	svc := newTestService(store)

	_, wrongPass := svc.Login(context.Background(), transport.LoginRequest{
		Email: "rep@example.com", Password: "nope-nope-nope",
	})
	_, unknown := svc.Login(context.Background(), transport.LoginRequest{
		Email: "ghost@example.com", Password: "nope-nope-nope",
	})
	if wrongPass.Error() != unknown.Error() {
		t.Errorf("login errors differ, account probing possible: %q vs %q", wrongPass, unknown)
	}
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	store := newFakeStore()
	seedUser(t, store, "rep@example.com", "correct-horse", httpkit.RoleSalesRep)
	svc := newTestService(store)

	_, err := svc.CreateUser(context.Background(), transport.CreateUserRequest{
		Email: "rep@example.com", Name: "Dup", Role: httpkit.RoleSalesRep, Password: "some-password",
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("err = %v, want KindConflict", err)
	}
}

func TestEnsureAdminOnlyOnEmptyStore(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store)

	if err := svc.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if len(store.users) != 1 {
		t.Fatalf("users = %d, want 1 bootstrap admin", len(store.users))
	}
	admin, err := store.GetByEmail(context.Background(), "admin@localhost")
	if err != nil || admin.Role != httpkit.RoleAdmin {
		t.Fatalf("bootstrap admin missing or wrong role: %+v, %v", admin, err)
	}

	if err := svc.EnsureAdmin(context.Background()); err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if len(store.users) != 1 {
		t.Error("EnsureAdmin created a second account on a non-empty store")
	}
}
