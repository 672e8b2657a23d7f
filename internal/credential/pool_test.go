package credential

import (
	"context"
	"testing"
	"time"

	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/infra/storage/memory"
)

func seedCredential(t *testing.T, repo *memory.CredentialRepo, platform domain.Platform, status domain.CredentialStatus, cooldownUntil *time.Time) string {
	t.Helper()
	cred := &domain.Credential{
		Platform:      platform,
		Secret:        "sessionid=abc",
		Status:        status,
		Enabled:       true,
		CooldownUntil: cooldownUntil,
	}
	if err := repo.Create(context.Background(), cred); err != nil {
		t.Fatalf("seed credential: %v", err)
	}
	return cred.ID
}

func TestSelectEmptyPool(t *testing.T) {
	pool := NewPool(memory.NewCredentialRepo(), 0)

	sel, err := pool.Select(context.Background(), domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel != nil {
		t.Errorf("Select = %+v, want nil for an empty pool", sel)
	}
}

func TestSelectRotatesLeastRecentlyUsed(t *testing.T) {
	repo := memory.NewCredentialRepo()
	ctx := context.Background()

	ids := map[string]bool{}
	for i := 0; i < 3; i++ {
		ids[seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialHealthy, nil)] = false
	}

	pool := NewPool(repo, 0)

	// One full rotation touches every credential exactly once.
	for i := 0; i < 3; i++ {
		sel, err := pool.Select(ctx, domain.PlatformInstagram)
		if err != nil {
			t.Fatalf("Select %d: %v", i, err)
		}
		if sel == nil {
			t.Fatalf("Select %d returned nil with healthy credentials available", i)
		}
		if ids[sel.Credential.ID] {
			t.Errorf("credential %s selected twice in one rotation", sel.Credential.ID)
		}
		ids[sel.Credential.ID] = true

		if err := pool.RecordSuccess(ctx, sel); err != nil {
			t.Fatalf("RecordSuccess: %v", err)
		}
	}

	for id, seen := range ids {
		if !seen {
			t.Errorf("credential %s never selected", id)
		}
	}
}

func TestSelectIgnoresOtherPlatforms(t *testing.T) {
	repo := memory.NewCredentialRepo()
	seedCredential(t, repo, domain.PlatformFacebook, domain.CredentialHealthy, nil)

	pool := NewPool(repo, 0)
	sel, err := pool.Select(context.Background(), domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel != nil {
		t.Errorf("Select returned a facebook credential for instagram")
	}
}

func TestSelectPromotesCooldownOnlyWhenExhausted(t *testing.T) {
	repo := memory.NewCredentialRepo()
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	healthyID := seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialHealthy, nil)
	cooldownID := seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialCooldown, &past)

	pool := NewPool(repo, 0)

	// A healthy candidate wins even with an elapsed cooldown credential
	// sitting in the pool.
	sel, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.Credential.ID != healthyID {
		t.Fatalf("Select = %s, want the healthy credential %s", sel.Credential.ID, healthyID)
	}
	cooled, _ := repo.GetByID(ctx, cooldownID)
	if cooled.Status != domain.CredentialCooldown {
		t.Errorf("cooldown credential promoted while a healthy candidate existed")
	}

	// Rate-limit the healthy one; only now does the elapsed cooldown
	// credential get promoted and used.
	if err := pool.RecordCooldown(ctx, sel, time.Hour, "429"); err != nil {
		t.Fatalf("RecordCooldown: %v", err)
	}

	sel2, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel2 == nil {
		t.Fatal("Select returned nil with a promotable cooldown credential")
	}
	if sel2.Credential.ID != cooldownID {
		t.Errorf("Select = %s, want the promoted credential %s", sel2.Credential.ID, cooldownID)
	}
	if sel2.Credential.Status != domain.CredentialHealthy {
		t.Errorf("promoted credential status = %s, want healthy", sel2.Credential.Status)
	}
}

func TestSelectSkipsActiveCooldown(t *testing.T) {
	repo := memory.NewCredentialRepo()
	future := time.Now().Add(time.Hour)
	seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialCooldown, &future)

	pool := NewPool(repo, 0)
	sel, err := pool.Select(context.Background(), domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel != nil {
		t.Errorf("Select returned a credential still in cooldown")
	}
}

func TestSelectSkipsExpiredAndDisabled(t *testing.T) {
	repo := memory.NewCredentialRepo()
	ctx := context.Background()

	seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialExpired, nil)
	disabledID := seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialHealthy, nil)
	if err := repo.SetEnabled(ctx, disabledID, false); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	pool := NewPool(repo, 0)
	sel, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel != nil {
		t.Errorf("Select = %s, want nil with only expired/disabled credentials", sel.Credential.ID)
	}
}

func TestHandleClaimedExactlyOnce(t *testing.T) {
	repo := memory.NewCredentialRepo()
	ctx := context.Background()
	seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialHealthy, nil)

	pool := NewPool(repo, 0)
	sel, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil || sel == nil {
		t.Fatalf("Select = (%+v, %v)", sel, err)
	}

	if err := pool.RecordSuccess(ctx, sel); err != nil {
		t.Fatalf("first RecordSuccess: %v", err)
	}
	if err := pool.RecordSuccess(ctx, sel); err == nil {
		t.Error("second outcome for the same handle succeeded, want error")
	}
	if err := pool.Release(sel); err == nil {
		t.Error("Release after a recorded outcome succeeded, want error")
	}
}

func TestReleaseLeavesCountersUntouched(t *testing.T) {
	repo := memory.NewCredentialRepo()
	ctx := context.Background()
	id := seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialHealthy, nil)

	pool := NewPool(repo, 0)
	sel, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil || sel == nil {
		t.Fatalf("Select = (%+v, %v)", sel, err)
	}
	if err := pool.Release(sel); err != nil {
		t.Fatalf("Release: %v", err)
	}

	cred, _ := repo.GetByID(ctx, id)
	if cred.SuccessCount != 0 || cred.ErrorCount != 0 {
		t.Errorf("counters = %d/%d after Release, want 0/0", cred.SuccessCount, cred.ErrorCount)
	}
	if cred.Status != domain.CredentialHealthy {
		t.Errorf("status = %s after Release, want healthy", cred.Status)
	}
	// MarkUsed from Select still counts.
	if cred.UseCount != 1 {
		t.Errorf("UseCount = %d, want 1", cred.UseCount)
	}
}

func TestRecordCooldownDefaultDuration(t *testing.T) {
	repo := memory.NewCredentialRepo()
	ctx := context.Background()
	id := seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialHealthy, nil)

	pool := NewPool(repo, 45*time.Minute)
	base := time.Unix(1700000000, 0)
	pool.now = func() time.Time { return base }

	sel, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil || sel == nil {
		t.Fatalf("Select = (%+v, %v)", sel, err)
	}
	if err := pool.RecordCooldown(ctx, sel, 0, "rate limited"); err != nil {
		t.Fatalf("RecordCooldown: %v", err)
	}

	cred, _ := repo.GetByID(ctx, id)
	if cred.Status != domain.CredentialCooldown {
		t.Fatalf("status = %s, want cooldown", cred.Status)
	}
	if cred.CooldownUntil == nil || !cred.CooldownUntil.Equal(base.Add(45*time.Minute)) {
		t.Errorf("CooldownUntil = %v, want %v", cred.CooldownUntil, base.Add(45*time.Minute))
	}
	if cred.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", cred.ErrorCount)
	}
}

func TestRecordExpired(t *testing.T) {
	repo := memory.NewCredentialRepo()
	ctx := context.Background()
	id := seedCredential(t, repo, domain.PlatformInstagram, domain.CredentialHealthy, nil)

	pool := NewPool(repo, 0)
	sel, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil || sel == nil {
		t.Fatalf("Select = (%+v, %v)", sel, err)
	}
	if err := pool.RecordExpired(ctx, sel, "session expired"); err != nil {
		t.Fatalf("RecordExpired: %v", err)
	}

	cred, _ := repo.GetByID(ctx, id)
	if cred.Status != domain.CredentialExpired {
		t.Errorf("status = %s, want expired", cred.Status)
	}

	// No automatic recovery: the expired credential never comes back.
	sel2, err := pool.Select(ctx, domain.PlatformInstagram)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel2 != nil {
		t.Errorf("Select returned an expired credential")
	}
}
