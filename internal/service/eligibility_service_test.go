package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dquispe/screening-api/internal/model"
	"github.com/dquispe/screening-api/internal/ratelimit"
)

type stubCaptcha struct {
	ok  bool
	err error
}

func (s *stubCaptcha) Verify(ctx context.Context, token string) (bool, error) {
	return s.ok, s.err
}

func newEligibilityFixture(t *testing.T) (*memoryStore, *ratelimit.MemoryBlockCache, EligibilityService) {
	t.Helper()
	store := newMemoryStore()
	store.data.candidates["12345678"] = model.Candidate{DNI: "12345678", Name: "Ana"}

	limiter := ratelimit.NewWindowLimiter(10, 5*time.Minute)
	blocks := ratelimit.NewMemoryBlockCache()
	svc := NewEligibilityService(store, limiter, blocks, &stubCaptcha{ok: true}, testConfig())
	return store, blocks, svc
}

func TestEligibilityKnownCandidate(t *testing.T) {
	store, _, svc := newEligibilityFixture(t)

	name, err := svc.Check(context.Background(), "12345678", "", "1.2.3.4")
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if name != "Ana" {
		t.Fatalf("want name Ana, got %q", name)
	}
	if len(store.data.attempts) != 1 || !store.data.attempts[0].Success {
		t.Fatalf("expected one successful attempt record, got %+v", store.data.attempts)
	}
	if store.data.attempts[0].IP != "1.2.3.4" {
		t.Fatalf("attempt must record the origin address")
	}
}

func TestEligibilityInvalidDNIFormat(t *testing.T) {
	store, _, svc := newEligibilityFixture(t)

	for _, dni := range []string{"", "1234567", "123456789", "1234567a", "12.45678"} {
		if _, err := svc.Check(context.Background(), dni, "", "ip"); !errors.Is(err, ErrInvalidDNI) {
			t.Fatalf("dni %q: want ErrInvalidDNI, got %v", dni, err)
		}
	}
	// Format rejections never reach the store.
	if store.data.attemptCounts != 0 || store.data.candidateLookups != 0 {
		t.Fatalf("invalid dni must not touch the store")
	}
}

func TestEligibilityUnknownDNIRecordsFailedAttempt(t *testing.T) {
	store, _, svc := newEligibilityFixture(t)

	if _, err := svc.Check(context.Background(), "99999999", "", "ip"); !errors.Is(err, ErrDNINotFound) {
		t.Fatalf("want ErrDNINotFound, got %v", err)
	}
	if len(store.data.attempts) != 1 || store.data.attempts[0].Success {
		t.Fatalf("expected one failed attempt record, got %+v", store.data.attempts)
	}
}

func TestEligibilityBlocksAfterMaxAttempts(t *testing.T) {
	store, blocks, svc := newEligibilityFixture(t)

	// Three failed lookups exhaust the budget (max 3).
	for i := 0; i < 3; i++ {
		if _, err := svc.Check(context.Background(), "99999999", "", "ip"); !errors.Is(err, ErrDNINotFound) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}

	if _, err := svc.Check(context.Background(), "99999999", "", "ip"); !errors.Is(err, ErrDNIBlocked) {
		t.Fatalf("want ErrDNIBlocked, got %v", err)
	}
	if !blocks.Blocked("99999999") {
		t.Fatalf("dni must be in the block cache")
	}

	// The next check short-circuits on the cache without another store query.
	countsBefore := store.data.attemptCounts
	if _, err := svc.Check(context.Background(), "99999999", "", "ip"); !errors.Is(err, ErrDNIBlocked) {
		t.Fatalf("want ErrDNIBlocked from cache, got %v", err)
	}
	if store.data.attemptCounts != countsBefore {
		t.Fatalf("blocked dni must not query the store again")
	}
}

func TestEligibilityAlreadyCompleted(t *testing.T) {
	store, _, svc := newEligibilityFixture(t)
	store.data.submissions["12345678"] = model.Submission{DNI: "12345678", Name: "Ana"}

	if _, err := svc.Check(context.Background(), "12345678", "", "ip"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("want ErrAlreadyCompleted, got %v", err)
	}
}

func TestEligibilityRateLimit(t *testing.T) {
	store := newMemoryStore()
	store.data.candidates["12345678"] = model.Candidate{DNI: "12345678", Name: "Ana"}
	cfg := testConfig()

	limiter := ratelimit.NewWindowLimiter(2, 5*time.Minute)
	svc := NewEligibilityService(store, limiter, ratelimit.NewMemoryBlockCache(), &stubCaptcha{ok: true}, cfg)

	for i := 0; i < 2; i++ {
		if _, err := svc.Check(context.Background(), "12345678", "", "ip"); err != nil && !errors.Is(err, ErrAlreadyCompleted) {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	_, err := svc.Check(context.Background(), "12345678", "", "ip")
	var rateErr *RateLimitError
	if !errors.As(err, &rateErr) {
		t.Fatalf("want RateLimitError, got %v", err)
	}
	if rateErr.ResetAt.IsZero() {
		t.Fatalf("rate limit error must carry the reset time")
	}

	// A different address is unaffected.
	if _, err := svc.Check(context.Background(), "12345678", "", "other-ip"); err != nil {
		t.Fatalf("other address: %v", err)
	}
}

func TestEligibilityCaptcha(t *testing.T) {
	store := newMemoryStore()
	store.data.candidates["12345678"] = model.Candidate{DNI: "12345678", Name: "Ana"}
	cfg := testConfig()
	cfg.Captcha.Enabled = true

	limiter := ratelimit.NewWindowLimiter(10, 5*time.Minute)
	blocks := ratelimit.NewMemoryBlockCache()

	svc := NewEligibilityService(store, limiter, blocks, &stubCaptcha{ok: true}, cfg)
	if _, err := svc.Check(context.Background(), "12345678", "", "ip"); !errors.Is(err, ErrCaptchaRequired) {
		t.Fatalf("missing proof: want ErrCaptchaRequired, got %v", err)
	}

	svc = NewEligibilityService(store, limiter, blocks, &stubCaptcha{ok: false}, cfg)
	if _, err := svc.Check(context.Background(), "12345678", "proof", "ip"); !errors.Is(err, ErrCaptchaInvalid) {
		t.Fatalf("rejected proof: want ErrCaptchaInvalid, got %v", err)
	}

	svc = NewEligibilityService(store, limiter, blocks, &stubCaptcha{ok: true}, cfg)
	if name, err := svc.Check(context.Background(), "12345678", "proof", "ip"); err != nil || name != "Ana" {
		t.Fatalf("accepted proof: got %q, %v", name, err)
	}
}
