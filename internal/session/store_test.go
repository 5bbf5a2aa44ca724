package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bookbuddy/storefront/internal/navigation"
	"github.com/bookbuddy/storefront/pkg/enums"
	"github.com/bookbuddy/storefront/pkg/storage"
	"github.com/bookbuddy/storefront/pkg/types"
	"github.com/golang-jwt/jwt/v5"
)

type failingStorage struct {
	*storage.MemoryStore
	failSet    bool
	failDelete bool
}

func (f *failingStorage) Delete(ctx context.Context, key string) error {
	if f.failDelete {
		return errors.New("io")
	}
	return f.MemoryStore.Delete(ctx, key)
}

func (f *failingStorage) Set(ctx context.Context, key, value string) error {
	if f.failSet {
		return errors.New("disk full")
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func newTestStore(t *testing.T, st storage.Store) *Store {
	t.Helper()
	s, err := NewStore(st, "auth", nil)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func mirrored(t *testing.T, st storage.Store) (types.Session, bool) {
	t.Helper()
	raw, err := st.Get(context.Background(), "auth")
	if errors.Is(err, storage.ErrNotFound) {
		return types.Session{}, false
	}
	if err != nil {
		t.Fatalf("reading mirror: %v", err)
	}
	var sess types.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		t.Fatalf("decoding mirror: %v", err)
	}
	return sess, true
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)})
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return signed
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	st := storage.NewMemoryStore()
	s := newTestStore(t, st)
	ctx := context.Background()

	if !s.Current().IsGuest() {
		t.Fatal("expected guest before login")
	}

	user := &types.UserProfile{ID: "u1", Name: "Ada", Address: "1 Main St", Role: enums.UserRoleCustomer}
	if err := s.Login(ctx, types.Session{User: user, Token: "tok-1"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if s.Token() != "tok-1" {
		t.Fatalf("unexpected token %q", s.Token())
	}
	got, ok := mirrored(t, st)
	if !ok || got.Token != "tok-1" || got.User.Name != "Ada" {
		t.Fatalf("unexpected mirror %+v", got)
	}

	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("second Logout must be a no-op: %v", err)
	}
	if !s.Current().IsZero() {
		t.Fatalf("expected empty session, got %+v", s.Current())
	}
	if _, ok := mirrored(t, st); ok {
		t.Fatal("expected mirror cleared")
	}
}

func TestLogoutOverwritesMirrorWhenDeleteFails(t *testing.T) {
	st := &failingStorage{MemoryStore: storage.NewMemoryStore(), failDelete: true}
	s := newTestStore(t, st)
	ctx := context.Background()
	var seen []string
	s.Subscribe(func(_ context.Context, current types.Session) {
		seen = append(seen, current.Token)
	})

	if err := s.Login(ctx, types.Session{Token: "tok"}); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := s.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if s.Token() != "" {
		t.Fatalf("expected memory cleared, got %q", s.Token())
	}
	got, ok := mirrored(t, st)
	if !ok || got.Token != "" || got.User != nil {
		t.Fatalf("expected empty mirror, got %+v present=%v", got, ok)
	}
	if len(seen) != 2 || seen[1] != "" {
		t.Fatalf("expected listeners to see logout, got %v", seen)
	}

	reloaded := newTestStore(t, st)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reloaded.Token() != "" {
		t.Fatalf("expected guest after reload, got %q", reloaded.Token())
	}
}

func TestLogoutNotifiesEvenWhenMirrorCannotBeCleared(t *testing.T) {
	st := &failingStorage{MemoryStore: storage.NewMemoryStore()}
	s := newTestStore(t, st)
	ctx := context.Background()
	var seen []string
	s.Subscribe(func(_ context.Context, current types.Session) {
		seen = append(seen, current.Token)
	})
	if err := s.Login(ctx, types.Session{Token: "tok"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	st.failDelete, st.failSet = true, true
	if err := s.Logout(ctx); err == nil {
		t.Fatal("expected error when mirror cannot be cleared")
	}
	if s.Token() != "" {
		t.Fatalf("expected memory cleared, got %q", s.Token())
	}
	if len(seen) != 2 || seen[1] != "" {
		t.Fatalf("expected listeners to see logout, got %v", seen)
	}
}

func TestLoginRequiresToken(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStore())
	if err := s.Login(context.Background(), types.Session{User: &types.UserProfile{Name: "Ada"}}); err == nil {
		t.Fatal("expected missing token to be rejected")
	}
}

func TestLoginRollsBackWhenMirrorWriteFails(t *testing.T) {
	st := &failingStorage{MemoryStore: storage.NewMemoryStore(), failSet: true}
	s := newTestStore(t, st)

	if err := s.Login(context.Background(), types.Session{Token: "tok"}); err == nil {
		t.Fatal("expected persist failure")
	}
	if s.Token() != "" {
		t.Fatalf("expected memory rolled back, token=%q", s.Token())
	}
}

func TestLoadRestoresMirror(t *testing.T) {
	st := storage.NewMemoryStore()
	raw, _ := json.Marshal(types.Session{Token: "opaque", User: &types.UserProfile{ID: "u1", Role: enums.UserRoleAdmin}})
	_ = st.Set(context.Background(), "auth", string(raw))

	s := newTestStore(t, st)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Token() != "opaque" || !s.Current().Role().IsAdmin() {
		t.Fatalf("unexpected restored session %+v", s.Current())
	}
}

func TestLoadTreatsExpiredTokenAsGuest(t *testing.T) {
	st := storage.NewMemoryStore()
	expired := signedToken(t, time.Now().Add(-time.Hour))
	raw, _ := json.Marshal(types.Session{Token: expired, User: &types.UserProfile{ID: "u1"}})
	_ = st.Set(context.Background(), "auth", string(raw))

	s := newTestStore(t, st)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Current().IsZero() {
		t.Fatalf("expected guest, got %+v", s.Current())
	}
	if _, ok := mirrored(t, st); ok {
		t.Fatal("expected expired mirror removed")
	}
}

func TestLoadIgnoresCorruptMirror(t *testing.T) {
	st := storage.NewMemoryStore()
	_ = st.Set(context.Background(), "auth", "{not json")
	s := newTestStore(t, st)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !s.Current().IsZero() {
		t.Fatal("expected guest for corrupt mirror")
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	if TokenExpired("opaque-token", now) {
		t.Fatal("opaque tokens never expire client side")
	}
	if !TokenExpired(signedToken(t, now.Add(-time.Minute)), now) {
		t.Fatal("expected past exp to be expired")
	}
	if TokenExpired(signedToken(t, now.Add(time.Hour)), now) {
		t.Fatal("expected future exp to be valid")
	}
}

func TestSubscribersSeeReplacements(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStore())
	var seen []string
	s.Subscribe(func(_ context.Context, current types.Session) {
		seen = append(seen, current.Token)
	})

	ctx := context.Background()
	_ = s.Login(ctx, types.Session{Token: "a"})
	_ = s.UpdateUser(ctx, types.UserProfile{Name: "Ada", Address: "1 Main St"})
	_ = s.Logout(ctx)
	_ = s.Logout(ctx)

	if len(seen) != 3 || seen[0] != "a" || seen[1] != "a" || seen[2] != "" {
		t.Fatalf("unexpected notifications %v", seen)
	}
	if s.Current().User != nil {
		t.Fatal("expected user cleared after logout")
	}
}

func TestUpdateUserRequiresSession(t *testing.T) {
	s := newTestStore(t, storage.NewMemoryStore())
	if err := s.UpdateUser(context.Background(), types.UserProfile{Name: "Ada"}); err == nil {
		t.Fatal("expected error without session")
	}
}

func TestGuardLogsOutAndRedirects(t *testing.T) {
	st := storage.NewMemoryStore()
	s := newTestStore(t, st)
	nav := navigation.NewRecorder(nil)
	_ = s.Login(context.Background(), types.Session{Token: "tok"})

	NewGuard(s, nav, nil).HandleUnauthorized(context.Background())

	if s.Token() != "" {
		t.Fatal("expected session cleared")
	}
	if nav.Current() != navigation.RouteLogin {
		t.Fatalf("expected redirect to login, got %q", nav.Current())
	}
}
