package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mobanklabs/otpgate/internal/otp/entity"
	"github.com/mobanklabs/otpgate/internal/pkg/clock"
	"github.com/mobanklabs/otpgate/internal/pkg/config"
	"github.com/mobanklabs/otpgate/internal/pkg/goerror"
	"github.com/mobanklabs/otpgate/internal/pkg/hash"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/otp"
	"github.com/mobanklabs/otpgate/internal/pkg/ratelimit"
	"github.com/mobanklabs/otpgate/internal/pkg/storage"
	"github.com/mobanklabs/otpgate/internal/pkg/validator"
)

type fakeDB struct {
	mu       sync.Mutex
	contacts map[string]entity.Contact
	recs     []entity.Record

	saveErr    error
	consumeErr error
}

func (f *fakeDB) GetContact(_ context.Context, userID string) (*entity.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.contacts[userID]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &c, nil
}

func (f *fakeDB) SaveCode(_ context.Context, rec entity.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.recs[:0]
	for _, r := range f.recs {
		if r.UserID == rec.UserID && r.ConsumedAt == nil {
			continue
		}
		kept = append(kept, r)
	}
	f.recs = append(kept, rec)
	return nil
}

func (f *fakeDB) FindActiveCode(_ context.Context, userID string) (*entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *entity.Record
	for i := range f.recs {
		r := &f.recs[i]
		if r.UserID != userID || r.ConsumedAt != nil {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, goerror.ErrNotFound
	}
	out := *latest
	return &out, nil
}

func (f *fakeDB) ConsumeCode(_ context.Context, userID, digest string, now time.Time) (bool, error) {
	if f.consumeErr != nil {
		return false, f.consumeErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.recs {
		r := &f.recs[i]
		if r.UserID == userID && r.Code == digest && r.ConsumedAt == nil && !now.After(r.ExpiresAt) {
			at := now
			r.ConsumedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) DeleteCode(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.recs[:0]
	for _, r := range f.recs {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	f.recs = kept
	return nil
}

func (f *fakeDB) PurgeExpired(_ context.Context, before time.Time) ([]entity.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var purged []entity.Record
	kept := f.recs[:0]
	for _, r := range f.recs {
		if r.ExpiresAt.Before(before) {
			purged = append(purged, r)
			continue
		}
		kept = append(kept, r)
	}
	f.recs = kept
	return purged, nil
}

func (f *fakeDB) countRecords(userID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, r := range f.recs {
		if r.UserID == userID {
			n++
		}
	}
	return n
}

type fakeMQ struct {
	mu        sync.Mutex
	published []LoginAlertEvent
	err       error
}

func (f *fakeMQ) PublishLoginAlert(_ context.Context, msg LoginAlertEvent) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, msg)
	return nil
}

type sentMail struct {
	to   entity.Contact
	code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) SendCode(_ context.Context, to entity.Contact, code string, _ time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, code: code})
	return nil
}

type fakeLimiter struct {
	mu     sync.Mutex
	allow  bool
	hits   int
	resets int
}

func (f *fakeLimiter) Allow(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.allow, nil
}

func (f *fakeLimiter) Hit(context.Context, string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
	return f.allow, nil
}

func (f *fakeLimiter) Reset(context.Context, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return nil
}

// windowLimiter is an in-memory fixed-window counter with the same contract
// as the Redis-backed limiter: Hit both counts and decides in one step.
type windowLimiter struct {
	mu     sync.Mutex
	clk    clock.Clocker
	limit  int64
	window time.Duration

	n         int64
	windowEnd time.Time
}

func (w *windowLimiter) roll(now time.Time) {
	if !w.windowEnd.IsZero() && now.After(w.windowEnd) {
		w.n = 0
		w.windowEnd = time.Time{}
	}
}

func (w *windowLimiter) Allow(context.Context, string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.roll(w.clk.Now())
	return w.n < w.limit, nil
}

func (w *windowLimiter) Hit(context.Context, string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	now := w.clk.Now()
	w.roll(now)
	if w.n == 0 {
		w.windowEnd = now.Add(w.window)
	}
	w.n++
	return w.n <= w.limit, nil
}

func (w *windowLimiter) Reset(context.Context, string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.n = 0
	w.windowEnd = time.Time{}
	return nil
}

type putCall struct {
	bucket string
	key    string
	body   string
}

type fakeArchive struct {
	mu   sync.Mutex
	puts []putCall
	err  error
}

func (f *fakeArchive) PutObject(_ context.Context, bucket, key string, r io.Reader, _ storage.PutOptions) (storage.ObjectInfo, error) {
	if f.err != nil {
		return storage.ObjectInfo{}, f.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts = append(f.puts, putCall{bucket: bucket, key: key, body: string(body)})
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(body))}, nil
}

func (f *fakeArchive) Close() error { return nil }

type seqID struct {
	mu sync.Mutex
	n  int64
}

func (s *seqID) Generate() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return s.n
}

// stubSource hands out queued codes, then a fixed fallback.
type stubSource struct {
	mu    sync.Mutex
	codes []string
}

func (s *stubSource) Digits(n int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.codes) > 0 {
		code := s.codes[0]
		s.codes = s.codes[1:]
		return code, nil
	}
	return strings.Repeat("9", n), nil
}

type fixture struct {
	uc           *Usecase
	db           *fakeDB
	mq           *fakeMQ
	mailer       *fakeMailer
	archive      *fakeArchive
	requestLimit *fakeLimiter
	verifyLimit  *fakeLimiter
	clock        *clock.Fixed
	source       *stubSource

	dep Dependency
}

const testConfig = `
modules:
  otp:
    purge_grace_hours: 24
    sweep_interval_minutes: 10
    archive_bucket: test-archive
`

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("failed to build validator: %v", err)
	}

	cfg, err := config.NewViperFromBytes("yaml", []byte(testConfig))
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}

	f := &fixture{
		db: &fakeDB{
			contacts: map[string]entity.Contact{
				"user-1": {UserID: "user-1", Email: "one@example.com", FullName: "User One"},
			},
		},
		mq:           &fakeMQ{},
		mailer:       &fakeMailer{},
		archive:      &fakeArchive{},
		requestLimit: &fakeLimiter{allow: true},
		verifyLimit:  &fakeLimiter{allow: true},
		clock:        &clock.Fixed{At: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)},
		source:       &stubSource{},
	}

	f.dep = Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		RepoMail:      f.mailer,
		Validator:     v10,
		Config:        cfg,
		Policy:        otp.NewPolicy(6, 3*time.Minute, f.source),
		HMAC:          hash.NewHMACSHA256("test-secret"),
		Archive:       f.archive,
		RequestLimit:  f.requestLimit,
		VerifyLimit:   f.verifyLimit,
		UID:           &seqID{},
		Clock:         f.clock,
		Instrument:    instrument.NewNoop(),
	}
	f.uc = New(f.dep)

	return f
}

// withRequestLimit rebuilds the usecase around a different issuance limiter.
func (f *fixture) withRequestLimit(l ratelimit.Limiter) {
	f.dep.RequestLimit = l
	f.uc = New(f.dep)
}

func errCode(t *testing.T, err error) goerror.Code {
	t.Helper()

	var ge *goerror.Error
	if !errors.As(err, &ge) {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	return ge.Code()
}

func TestRequestThenVerify(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	// Act
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Assert
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected 1 email, got %d", len(f.mailer.sent))
	}
	code := f.mailer.sent[0].code
	if len(code) != 6 {
		t.Fatalf("expected 6-digit code, got %q", code)
	}
	for _, r := range f.db.recs {
		if r.Code == code {
			t.Fatalf("plain code must not be persisted")
		}
	}

	if err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: code}); err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if len(f.mq.published) != 1 {
		t.Fatalf("expected 1 login alert, got %d", len(f.mq.published))
	}
	if f.mq.published[0].Email != "one@example.com" {
		t.Fatalf("login alert for wrong contact: %+v", f.mq.published[0])
	}
	if f.verifyLimit.resets != 1 {
		t.Fatalf("expected lockout reset on success, got %d", f.verifyLimit.resets)
	}
}

func TestVerifySecondAttemptFindsNoActiveCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := f.mailer.sent[0].code
	if err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: code}); err != nil {
		t.Fatalf("first verify failed: %v", err)
	}

	// Act
	err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: code})

	// Assert
	if err == nil {
		t.Fatalf("expected second verify to fail")
	}
	if got := errCode(t, err); got != goerror.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %s", got)
	}
}

func TestVerifyWrongCodeCountsFailure(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.source.codes = []string{"111111"}
	ctx := context.Background()
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// Act
	err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: "222222"})

	// Assert
	if got := errCode(t, err); got != goerror.CodeInvalidInput {
		t.Fatalf("expected CodeInvalidInput, got %s", got)
	}
	if f.verifyLimit.hits != 1 {
		t.Fatalf("expected 1 failed-attempt hit, got %d", f.verifyLimit.hits)
	}

	// The code survives a wrong guess.
	if err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: "111111"}); err != nil {
		t.Fatalf("verify with right code failed: %v", err)
	}
}

func TestVerifyExpiredCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.source.codes = []string{"111111", "222222"}
	ctx := context.Background()
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}

	// A code is still valid at exactly the expiry instant.
	f.clock.At = f.clock.At.Add(3 * time.Minute)
	if err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: "111111"}); err != nil {
		t.Fatalf("verify at the expiry instant failed: %v", err)
	}

	f.db.recs = nil
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("second request failed: %v", err)
	}
	f.clock.At = f.clock.At.Add(3*time.Minute + time.Second)

	// Act
	err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: "222222"})

	// Assert
	if got := errCode(t, err); got != goerror.CodeExpired {
		t.Fatalf("expected CodeExpired, got %s", got)
	}
	if n := f.db.countRecords("user-1"); n != 0 {
		t.Fatalf("expected expired row purged, %d remain", n)
	}
}

func TestRequestSupersedesPreviousCode(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.source.codes = []string{"111111", "222222"}
	ctx := context.Background()

	// Act
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("first request failed: %v", err)
	}
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("second request failed: %v", err)
	}

	// Assert
	if n := f.db.countRecords("user-1"); n != 1 {
		t.Fatalf("expected exactly 1 active record, got %d", n)
	}
	err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: "111111"})
	if got := errCode(t, err); got != goerror.CodeInvalidInput {
		t.Fatalf("expected superseded code rejected, got %s", got)
	}
	if err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: "222222"}); err != nil {
		t.Fatalf("verify with latest code failed: %v", err)
	}
}

func TestConcurrentVerifySingleSuccess(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
		t.Fatalf("request failed: %v", err)
	}
	code := f.mailer.sent[0].code

	// Act
	const attempts = 16
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: code})
		}(i)
	}
	wg.Wait()

	// Assert
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly 1 attempt to succeed, got %d", succeeded)
	}
}

func TestRequestRateLimited(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.requestLimit.allow = false
	ctx := context.Background()

	// Act
	err := f.uc.Request(ctx, RequestInput{UserID: "user-1"})

	// Assert
	if got := errCode(t, err); got != goerror.CodeTooManyRequest {
		t.Fatalf("expected CodeTooManyRequest, got %s", got)
	}
	if len(f.db.recs) != 0 {
		t.Fatalf("expected no record persisted while limited")
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("expected no email sent while limited")
	}
}

func TestConcurrentRequestsStayWithinLimit(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.withRequestLimit(&windowLimiter{clk: f.clock, limit: 5, window: 15 * time.Minute})
	ctx := context.Background()

	// Act
	const attempts = 12
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = f.uc.Request(ctx, RequestInput{UserID: "user-1"})
		}(i)
	}
	wg.Wait()

	// Assert
	issued := 0
	for _, err := range errs {
		if err == nil {
			issued++
			continue
		}
		if got := errCode(t, err); got != goerror.CodeTooManyRequest {
			t.Fatalf("expected CodeTooManyRequest, got %s", got)
		}
	}
	if issued != 5 {
		t.Fatalf("expected exactly 5 issuances within the window, got %d", issued)
	}
	if len(f.mailer.sent) != 5 {
		t.Fatalf("expected 5 emails, got %d", len(f.mailer.sent))
	}
}

func TestRequestAllowedAgainAfterWindow(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.withRequestLimit(&windowLimiter{clk: f.clock, limit: 5, window: 15 * time.Minute})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := f.uc.Request(ctx, RequestInput{UserID: "user-1"}); err != nil {
			t.Fatalf("request %d failed: %v", i+1, err)
		}
	}
	err := f.uc.Request(ctx, RequestInput{UserID: "user-1"})
	if got := errCode(t, err); got != goerror.CodeTooManyRequest {
		t.Fatalf("expected CodeTooManyRequest at the limit, got %s", got)
	}

	// Act
	f.clock.At = f.clock.At.Add(15*time.Minute + time.Second)
	err = f.uc.Request(ctx, RequestInput{UserID: "user-1"})

	// Assert
	if err != nil {
		t.Fatalf("expected issuance to succeed after the window, got %v", err)
	}
	if len(f.mailer.sent) != 6 {
		t.Fatalf("expected 6 emails in total, got %d", len(f.mailer.sent))
	}
}

func TestVerifyLockedOut(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.verifyLimit.allow = false
	ctx := context.Background()

	// Act
	err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: "123456"})

	// Assert
	if got := errCode(t, err); got != goerror.CodeTooManyRequest {
		t.Fatalf("expected CodeTooManyRequest, got %s", got)
	}
}

func TestRequestUnknownUser(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	// Act
	err := f.uc.Request(ctx, RequestInput{UserID: "nobody"})

	// Assert
	if got := errCode(t, err); got != goerror.CodeNotFound {
		t.Fatalf("expected CodeNotFound, got %s", got)
	}
}

func TestRequestDeliveryFailureKeepsRecord(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.mailer.err = fmt.Errorf("smtp: connection refused")
	ctx := context.Background()

	// Act
	err := f.uc.Request(ctx, RequestInput{UserID: "user-1"})

	// Assert
	if got := errCode(t, err); got != goerror.CodeDeliveryFailed {
		t.Fatalf("expected CodeDeliveryFailed, got %s", got)
	}
	if n := f.db.countRecords("user-1"); n != 1 {
		t.Fatalf("expected record to stay persisted, got %d", n)
	}
}

func TestVerifyMalformedCodeRejected(t *testing.T) {
	tests := []struct {
		name string
		code string
	}{
		{name: "non numeric", code: "abc"},
		{name: "wrong width", code: "12345"},
		{name: "too long", code: "1234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			f := newFixture(t)
			ctx := context.Background()

			// Act
			err := f.uc.Verify(ctx, VerifyInput{UserID: "user-1", Code: tt.code})

			// Assert
			if got := errCode(t, err); got != goerror.CodeInvalidInput {
				t.Fatalf("expected CodeInvalidInput, got %s", got)
			}
			if f.verifyLimit.hits != 0 {
				t.Fatalf("malformed code must not reach the limiter, got %d hits", f.verifyLimit.hits)
			}
		})
	}
}

func TestSweepPurgesAndArchives(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()
	now := f.clock.At
	f.db.recs = []entity.Record{
		{ID: 1, UserID: "user-1", Code: "d1", CreatedAt: now.Add(-48 * time.Hour), ExpiresAt: now.Add(-47 * time.Hour)},
		{ID: 2, UserID: "user-1", Code: "d2", CreatedAt: now.Add(-time.Minute), ExpiresAt: now.Add(2 * time.Minute)},
	}

	// Act
	if err := f.uc.Sweep(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	// Assert
	if n := f.db.countRecords("user-1"); n != 1 {
		t.Fatalf("expected only the live record to remain, got %d", n)
	}
	if len(f.archive.puts) != 1 {
		t.Fatalf("expected 1 archive object, got %d", len(f.archive.puts))
	}
	put := f.archive.puts[0]
	if put.bucket != "test-archive" {
		t.Fatalf("unexpected bucket %q", put.bucket)
	}
	if !strings.Contains(put.body, `"id":1`) {
		t.Fatalf("expected purged record in archive, got %q", put.body)
	}
	if strings.Contains(put.body, "d1") {
		t.Fatalf("digest must not be archived: %q", put.body)
	}
}

func TestSweepNoExpiredRows(t *testing.T) {
	// Arrange
	f := newFixture(t)
	ctx := context.Background()

	// Act
	if err := f.uc.Sweep(ctx); err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	// Assert
	if len(f.archive.puts) != 0 {
		t.Fatalf("expected no archive writes, got %d", len(f.archive.puts))
	}
}
