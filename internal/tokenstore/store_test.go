package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/taskdeck/cli/internal/model"
)

func TestSaveLoadClear(t *testing.T) {
	store := New(t.TempDir())

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("expected absent pair on fresh store, got ok=%v err=%v", ok, err)
	}

	pair := model.TokenPair{Access: "access-1", Refresh: "refresh-1"}
	if err := store.Save(pair); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("expected pair after save, got ok=%v err=%v", ok, err)
	}
	if got != pair {
		t.Fatalf("loaded %+v, want %+v", got, pair)
	}

	replaced := model.TokenPair{Access: "access-2", Refresh: "refresh-2"}
	if err := store.Save(replaced); err != nil {
		t.Fatalf("second save failed: %v", err)
	}
	got, _, _ = store.Load()
	if got != replaced {
		t.Fatalf("save did not replace prior value: %+v", got)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatal("expected absent pair after clear")
	}

	// Clearing again is a no-op, not an error.
	if err := store.Clear(); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
}

func TestLoadMalformedTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	if err := os.WriteFile(filepath.Join(dir, "tokens.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	pair, ok, err := store.Load()
	if err != nil {
		t.Fatalf("malformed file must not error: %v", err)
	}
	if ok || pair.Access != "" {
		t.Fatalf("malformed file must read as absent, got ok=%v pair=%+v", ok, pair)
	}
}

func TestLoadEmptyAccessTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := New(dir)

	if err := os.WriteFile(filepath.Join(dir, "tokens.json"), []byte(`{"access":"","refresh":"r"}`), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("empty access must read as absent, got ok=%v err=%v", ok, err)
	}
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		Subject:   "42",
		ExpiresAt: jwt.NewNumericDate(exp),
	}
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	info, err := Inspect(access)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	if info.Subject != "42" {
		t.Fatalf("subject = %q, want 42", info.Subject)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Fatalf("expires = %v, want %v", info.ExpiresAt, exp)
	}

	if _, err := Inspect("not-a-jwt"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}
