package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/costpulse/costpulse/internal/domain/account"
	"github.com/costpulse/costpulse/internal/testutil"
)

func TestAccountRepositoryRoundTrip(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &account.Account{
		UserID:         7,
		ProviderID:     account.ProviderAWS,
		Name:           "prod",
		CredentialsRef: "ref-prod",
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id == 0 {
		t.Fatal("Create returned zero ID")
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got == nil {
		t.Fatal("GetByID returned nil for existing account")
	}
	if got.UserID != 7 || got.ProviderID != account.ProviderAWS || got.Name != "prod" {
		t.Errorf("round trip = %+v", got)
	}
	if got.CredentialsRef != "ref-prod" {
		t.Errorf("CredentialsRef = %q", got.CredentialsRef)
	}
	if got.LastSyncedAt != nil {
		t.Error("LastSyncedAt set before any sync")
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not stamped")
	}
}

func TestAccountRepositoryGetMissing(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAccountRepository(db)

	got, err := repo.GetByID(context.Background(), 999)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if got != nil {
		t.Errorf("GetByID = %+v, want nil for a missing account", got)
	}
}

func TestAccountRepositoryList(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	for i, spec := range []struct {
		userID int64
		name   string
	}{{1, "a"}, {1, "b"}, {2, "c"}} {
		_, err := repo.Create(ctx, &account.Account{
			UserID:         spec.userID,
			ProviderID:     account.ProviderGCP,
			Name:           spec.name,
			CredentialsRef: "ref-" + spec.name,
		})
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("List returned %d accounts, want 3", len(all))
	}

	mine, err := repo.ListByUser(ctx, 1)
	if err != nil {
		t.Fatalf("ListByUser returned error: %v", err)
	}
	if len(mine) != 2 {
		t.Errorf("ListByUser(1) returned %d accounts, want 2", len(mine))
	}
}

func TestAccountRepositoryUpdateLastSyncedAt(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &account.Account{
		UserID: 1, ProviderID: account.ProviderVercel, Name: "team", CredentialsRef: "ref-team",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := repo.UpdateLastSyncedAt(ctx, id, at); err != nil {
		t.Fatalf("UpdateLastSyncedAt returned error: %v", err)
	}

	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.LastSyncedAt == nil {
		t.Fatal("LastSyncedAt still nil after update")
	}
	if !got.LastSyncedAt.UTC().Equal(at) {
		t.Errorf("LastSyncedAt = %v, want %v", got.LastSyncedAt, at)
	}
}

func TestAccountRepositoryDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewAccountRepository(db)
	ctx := context.Background()

	id, err := repo.Create(ctx, &account.Account{
		UserID: 1, ProviderID: account.ProviderLinode, Name: "x", CredentialsRef: "ref-x",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	got, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID after delete: %v", err)
	}
	if got != nil {
		t.Error("account still present after Delete")
	}
}
