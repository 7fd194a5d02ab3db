package client

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/DriveDocs-Network/data_layer/sessionstore"
)

func newFileBackedStore(t *testing.T) (*SessionStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.json")
	return NewSessionStore(sessionstore.NewFileStorage(path), zerolog.Nop()), path
}

func TestInitializeWithoutRecord(t *testing.T) {
	st, _ := newFileBackedStore(t)
	if err := st.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() err = %v", err)
	}
	if st.LoggedIn() || st.Session() != nil {
		t.Fatal("fresh store must be logged out")
	}
}

func TestInitializeRestoresSession(t *testing.T) {
	st, path := newFileBackedStore(t)
	if err := os.WriteFile(path, []byte(`{"access_token":"A","refresh_token":"R","expires":1700000000}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := st.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() err = %v", err)
	}
	sess := st.Session()
	if sess == nil || sess.AccessToken != "A" || sess.RefreshToken != "R" || sess.Expires != 1700000000 {
		t.Fatalf("session = %+v", sess)
	}
	if !st.LoggedIn() {
		t.Fatal("LoggedIn() = false after restore")
	}
}

func TestInitializeIsIdempotent(t *testing.T) {
	st, path := newFileBackedStore(t)
	if err := st.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}

	// A record appearing after the first call must not be picked up.
	if err := os.WriteFile(path, []byte(`{"access_token":"late"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := st.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if st.Session() != nil {
		t.Fatal("second Initialize() must be a no-op")
	}
}

func TestInitializeDiscardsCorruptRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	storage := sessionstore.NewFileStorage(path)
	st := NewSessionStore(storage, zerolog.Nop())
	if err := os.WriteFile(path, []byte("not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := st.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() err = %v, corrupt records must not fail startup", err)
	}
	if st.LoggedIn() {
		t.Fatal("corrupt record must leave the store logged out")
	}
	data, err := storage.Load(context.Background())
	if err != nil || data != nil {
		t.Fatalf("Load() = %q, %v, want the corrupt record cleared", data, err)
	}
}

func TestSaveAndClearRoundTrip(t *testing.T) {
	st, _ := newFileBackedStore(t)
	ctx := context.Background()

	if err := st.Save(ctx, Session{AccessToken: "A", RefreshToken: "R", Expires: 42}); err != nil {
		t.Fatalf("Save() err = %v", err)
	}
	if tok, ok := st.AccessToken(); !ok || tok != "A" {
		t.Fatalf("AccessToken() = %q, %v", tok, ok)
	}

	if err := st.Clear(ctx); err != nil {
		t.Fatalf("Clear() err = %v", err)
	}
	if st.LoggedIn() || st.Session() != nil {
		t.Fatal("store must be logged out after Clear")
	}
	if _, ok := st.AccessToken(); ok {
		t.Fatal("AccessToken() must report absence after Clear")
	}
}

func TestSessionReturnsCopy(t *testing.T) {
	st, _ := newFileBackedStore(t)
	if err := st.Save(context.Background(), Session{AccessToken: "A"}); err != nil {
		t.Fatal(err)
	}

	st.Session().AccessToken = "mutated"
	if tok, _ := st.AccessToken(); tok != "A" {
		t.Fatalf("stored token = %q, caller mutated the store", tok)
	}
}

func TestTokenExpiryFromJWTClaim(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatal(err)
	}

	sess := Session{AccessToken: signed, Expires: 1}
	if got := sess.TokenExpiry(); !got.Equal(exp) {
		t.Fatalf("TokenExpiry() = %v, want %v", got, exp)
	}
}

func TestTokenExpiryFallsBackToExpires(t *testing.T) {
	sess := Session{AccessToken: "opaque-token", Expires: 1700000000}
	if got := sess.TokenExpiry(); !got.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("TokenExpiry() = %v", got)
	}
}
