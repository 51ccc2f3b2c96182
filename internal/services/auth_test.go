package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/codemate-vn/codemate-backend/internal/repos"
	"github.com/codemate-vn/codemate-backend/internal/requestdata"
	"github.com/codemate-vn/codemate-backend/internal/types"
)

func newTestAuthService(t *testing.T, db *gorm.DB) AuthService {
	t.Helper()
	log := testLogger(t)
	return NewAuthService(
		db,
		log,
		repos.NewUserRepo(db, log),
		repos.NewSessionRepo(db, log),
		nil, // avatars off in tests
		"test-secret",
		"",
		time.Hour,
	)
}

func TestAuthService_RegisterLoginRoundTrip(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	auth := newTestAuthService(t, db)
	ctx := context.Background()

	created, err := auth.RegisterUser(ctx, "  Minh.Pham@Example.COM ", "s3cret-pass", "Minh Phạm")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if created.Email != "minh.pham@example.com" {
		t.Fatalf("email not normalized: %q", created.Email)
	}
	if created.PasswordHash == "s3cret-pass" || created.PasswordHash == "" {
		t.Fatalf("password must be stored hashed")
	}

	user, token, err := auth.LoginUser(ctx, "minh.pham@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if user.ID != created.ID || token == "" {
		t.Fatalf("unexpected login result: %v / %q", user.ID, token)
	}

	authedCtx, err := auth.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("token should authenticate: %v", err)
	}
	rd := requestdata.GetRequestData(authedCtx)
	if rd == nil || rd.UserID != created.ID {
		t.Fatalf("request data missing or wrong user: %+v", rd)
	}
}

func TestAuthService_RegisterValidation(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	auth := newTestAuthService(t, db)
	ctx := context.Background()

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"missing email", "", "pass"},
		{"missing password", "a@example.com", ""},
		{"blank email", "   ", "pass"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if _, err := auth.RegisterUser(ctx, tc.email, tc.password, ""); !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}

	if _, err := auth.RegisterUser(ctx, "taken@example.com", "pass", ""); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := auth.RegisterUser(ctx, "TAKEN@example.com", "pass2", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation on duplicate email, got %v", err)
	}
}

func TestAuthService_LoginRejectionsAreUniform(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	auth := newTestAuthService(t, db)
	ctx := context.Background()

	if _, err := auth.RegisterUser(ctx, "known@example.com", "right-pass", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	// a federated account has no usable password
	federated := seedUser(t, db, "google-only@example.com")
	if err := db.Model(&types.User{}).Where("id = ?", federated.ID).
		Update("auth_provider", types.AuthProviderGoogle).Error; err != nil {
		t.Fatalf("mark federated: %v", err)
	}

	cases := []struct {
		name     string
		email    string
		password string
	}{
		{"unknown email", "nobody@example.com", "whatever"},
		{"wrong password", "known@example.com", "wrong-pass"},
		{"federated account", "google-only@example.com", "whatever"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := auth.LoginUser(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Fatalf("expected ErrInvalidCredentials, got %v", err)
			}
		})
	}
}

func TestAuthService_GoogleUpsertIsIdempotent(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	auth := newTestAuthService(t, db).(*authService)
	ctx := context.Background()

	first, err := auth.getOrCreateGoogleUser(ctx, "google-sub-1", "lan@example.com", "Lan Trần", "http://pic/1.png")
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if first.AuthProvider != types.AuthProviderGoogle || first.GoogleID != "google-sub-1" {
		t.Fatalf("unexpected federated user: %+v", first)
	}
	if first.LastLogin == nil {
		t.Fatalf("first login must set last_login")
	}

	// same external id, changed profile: one row, fields refreshed
	second, err := auth.getOrCreateGoogleUser(ctx, "google-sub-1", "lan@example.com", "Lan T. Trần", "http://pic/2.png")
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("upsert created a second row: %s vs %s", second.ID, first.ID)
	}
	if second.FullName != "Lan T. Trần" || second.AvatarURL != "http://pic/2.png" {
		t.Fatalf("profile not refreshed: %+v", second)
	}
	if second.LastLogin == nil || second.LastLogin.Before(*first.LastLogin) {
		t.Fatalf("last_login not refreshed: %v -> %v", first.LastLogin, second.LastLogin)
	}

	var count int64
	if err := db.Model(&types.User{}).Where("google_id = ?", "google-sub-1").Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly one row, got %d", count)
	}
}

func TestAuthService_LogoutRevokesToken(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	auth := newTestAuthService(t, db)
	ctx := context.Background()

	if _, err := auth.RegisterUser(ctx, "bye@example.com", "pass", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, token, err := auth.LoginUser(ctx, "bye@example.com", "pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	authedCtx, err := auth.SetContextFromToken(ctx, token)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if err := auth.LogoutUser(authedCtx); err != nil {
		t.Fatalf("logout: %v", err)
	}

	// the JWT still parses, but the session row is gone
	if _, err := auth.SetContextFromToken(ctx, token); err == nil {
		t.Fatalf("expected revoked token to be rejected")
	}
}

func TestAuthService_SetContextFromToken_RejectsGarbage(t *testing.T) {
	t.Parallel()
	db := openTestDB(t)
	auth := newTestAuthService(t, db)
	ctx := context.Background()

	for _, token := range []string{"", "not-a-jwt", "aaa.bbb.ccc"} {
		if _, err := auth.SetContextFromToken(ctx, token); err == nil {
			t.Fatalf("expected rejection for %q", token)
		}
	}
}
