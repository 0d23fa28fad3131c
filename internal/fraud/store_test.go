package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func johnCase() Case {
	return Case{
		UserName:          "John",
		CardEnding:        "**** 4242",
		TransactionAmount: "₹18,499",
		MerchantName:      "ABC Industries",
		SecurityQuestion:  "What is your favorite pet's name?",
		SecurityAnswer:    "fluffy",
		Status:            StatusPendingReview,
	}
}

func openTestStore(t *testing.T, seeds ...Case) (*SqlStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cases.db")
	s, err := Open(context.Background(), path, seeds)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestOpen_SeedsOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	s, path := openTestStore(t, johnCase())

	cases, err := s.List(ctx)
	if err != nil || len(cases) != 1 {
		t.Fatalf("List: %d cases, err %v", len(cases), err)
	}
	var snapshot map[string]any
	if err := json.Unmarshal([]byte(cases[0].RawJSON), &snapshot); err != nil {
		t.Fatalf("raw_json is not JSON: %v", err)
	}
	if snapshot["userName"] != "John" {
		t.Errorf("raw_json userName = %v", snapshot["userName"])
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	again, err := Open(ctx, path, []Case{johnCase(), johnCase()})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	cases, err = again.List(ctx)
	if err != nil || len(cases) != 1 {
		t.Fatalf("after reopen: %d cases, err %v; seeds must be inserted once", len(cases), err)
	}
}

func TestFindPending(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, johnCase())

	for _, name := range []string{"John", "john", "JOHN"} {
		c, err := s.FindPending(ctx, name)
		if err != nil {
			t.Fatalf("FindPending(%q): %v", name, err)
		}
		if c.MerchantName != "ABC Industries" || c.Status != StatusPendingReview {
			t.Errorf("FindPending(%q) = %+v", name, c)
		}
	}

	if _, err := s.FindPending(ctx, "Mallory"); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("unknown name err = %v, want ErrCaseNotFound", err)
	}
}

func TestResolve_IsTerminal(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, johnCase())
	c, err := s.FindPending(ctx, "John")
	if err != nil {
		t.Fatalf("FindPending: %v", err)
	}

	if err := s.Resolve(ctx, c.ID, StatusConfirmedFraud, "User reported fraud"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	got, err := s.Get(ctx, c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != StatusConfirmedFraud || got.OutcomeNote != "User reported fraud" {
		t.Errorf("after resolve: status=%s note=%q", got.Status, got.OutcomeNote)
	}

	if err := s.Resolve(ctx, c.ID, StatusConfirmedSafe, "again"); !errors.Is(err, ErrCaseClosed) {
		t.Errorf("second resolve err = %v, want ErrCaseClosed", err)
	}
	if _, err := s.FindPending(ctx, "John"); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("resolved case still pending: %v", err)
	}
}

func TestResolve_Rejects(t *testing.T) {
	ctx := context.Background()
	s, _ := openTestStore(t, johnCase())

	if err := s.Resolve(ctx, 999, StatusConfirmedSafe, ""); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("unknown id err = %v, want ErrCaseNotFound", err)
	}
	if err := s.Resolve(ctx, 1, StatusPendingReview, ""); err == nil {
		t.Error("expected error resolving to a non-terminal status")
	}
}

func TestOpen_RejectsInvalidSeed(t *testing.T) {
	bad := johnCase()
	bad.SecurityAnswer = ""
	if _, err := Open(context.Background(), filepath.Join(t.TempDir(), "cases.db"), []Case{bad}); err == nil {
		t.Fatal("expected invalid seed to fail startup")
	}
}

func TestSeedCases(t *testing.T) {
	cases, err := SeedCases()
	if err != nil {
		t.Fatalf("SeedCases: %v", err)
	}
	var john *Case
	for i := range cases {
		if cases[i].UserName == "John" {
			john = &cases[i]
		}
	}
	if john == nil {
		t.Fatal("seed data has no John case")
	}
	if john.SecurityAnswer != "fluffy" || john.Status != StatusPendingReview {
		t.Errorf("John seed = %+v", john)
	}
}

func TestParseSeed_DefaultsStatus(t *testing.T) {
	cases, err := ParseSeed([]byte("cases:\n  - userName: Ann\n    securityQuestion: Q?\n    securityAnswer: a\n"))
	if err != nil {
		t.Fatalf("ParseSeed: %v", err)
	}
	if cases[0].Status != StatusPendingReview {
		t.Errorf("status = %q, want pending_review", cases[0].Status)
	}
	if _, err := ParseSeed([]byte("cases:\n  - userName: Ann\n    securityQuestion: Q?\n    securityAnswer: a\n    status: archived\n")); err == nil {
		t.Error("expected unknown status to be rejected")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPendingReview, StatusConfirmedSafe, true},
		{StatusPendingReview, StatusConfirmedFraud, true},
		{StatusPendingReview, StatusVerificationFailed, true},
		{StatusPendingReview, StatusPendingReview, false},
		{StatusConfirmedSafe, StatusConfirmedFraud, false},
		{StatusVerificationFailed, StatusPendingReview, false},
		{Status("archived"), StatusConfirmedSafe, false},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestMemStore_MatchesSqlStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore(johnCase())

	c, err := m.FindPending(ctx, "john")
	if err != nil {
		t.Fatalf("FindPending: %v", err)
	}
	if err := m.Resolve(ctx, c.ID, StatusConfirmedSafe, "ok"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if err := m.Resolve(ctx, c.ID, StatusConfirmedFraud, "no"); !errors.Is(err, ErrCaseClosed) {
		t.Errorf("second resolve err = %v, want ErrCaseClosed", err)
	}
	if _, err := m.FindPending(ctx, "John"); !errors.Is(err, ErrCaseNotFound) {
		t.Errorf("resolved case still pending: %v", err)
	}
}
