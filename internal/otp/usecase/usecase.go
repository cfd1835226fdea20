package usecase

import (
	"context"
	"time"

	"github.com/mobanklabs/otpgate/internal/otp/entity"
	"github.com/mobanklabs/otpgate/internal/pkg/clock"
	"github.com/mobanklabs/otpgate/internal/pkg/config"
	"github.com/mobanklabs/otpgate/internal/pkg/hash"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/otp"
	"github.com/mobanklabs/otpgate/internal/pkg/ratelimit"
	"github.com/mobanklabs/otpgate/internal/pkg/storage"
	"github.com/mobanklabs/otpgate/internal/pkg/uid"
	"github.com/mobanklabs/otpgate/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type LoginAlertEvent struct {
	UserID   string
	Email    string
	FullName string
	At       time.Time
}

type repoMessaging interface {
	PublishLoginAlert(ctx context.Context, msg LoginAlertEvent) error
}

type repoDB interface {
	GetContact(ctx context.Context, userID string) (*entity.Contact, error)

	SaveCode(ctx context.Context, rec entity.Record) error
	FindActiveCode(ctx context.Context, userID string) (*entity.Record, error)
	ConsumeCode(ctx context.Context, userID, digest string, now time.Time) (bool, error)
	DeleteCode(ctx context.Context, id int64) error
	PurgeExpired(ctx context.Context, before time.Time) ([]entity.Record, error)
}

type repoMail interface {
	SendCode(ctx context.Context, to entity.Contact, code string, validity time.Duration) error
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	repoMail      repoMail
	validator     validator.Validator
	cfg           config.Config
	policy        *otp.Policy
	hmac          hash.Hash
	archive       storage.Storage
	requestLimit  ratelimit.Limiter
	verifyLimit   ratelimit.Limiter
	uid           uid.NumberID
	clock         clock.Clocker
	ins           instrument.Instrumentation
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	RepoMail      repoMail
	Validator     validator.Validator
	Config        config.Config
	Policy        *otp.Policy
	HMAC          hash.Hash
	Archive       storage.Storage
	RequestLimit  ratelimit.Limiter
	VerifyLimit   ratelimit.Limiter
	UID           uid.NumberID
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		repoMail:      dep.RepoMail,
		validator:     dep.Validator,
		cfg:           dep.Config,
		policy:        dep.Policy,
		hmac:          dep.HMAC,
		archive:       dep.Archive,
		requestLimit:  dep.RequestLimit,
		verifyLimit:   dep.VerifyLimit,
		uid:           dep.UID,
		clock:         dep.Clock,
		ins:           dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("otp.usecase").Start(ctx, name)
}
