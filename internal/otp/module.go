package otp

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mobanklabs/otpgate/internal/otp/inbound"
	"github.com/mobanklabs/otpgate/internal/otp/outbound/db"
	"github.com/mobanklabs/otpgate/internal/otp/outbound/mailer"
	"github.com/mobanklabs/otpgate/internal/otp/outbound/mq"
	"github.com/mobanklabs/otpgate/internal/otp/usecase"
	"github.com/mobanklabs/otpgate/internal/pkg/clock"
	"github.com/mobanklabs/otpgate/internal/pkg/config"
	"github.com/mobanklabs/otpgate/internal/pkg/goroutine"
	"github.com/mobanklabs/otpgate/internal/pkg/hash"
	"github.com/mobanklabs/otpgate/internal/pkg/instrument"
	"github.com/mobanklabs/otpgate/internal/pkg/mail"
	"github.com/mobanklabs/otpgate/internal/pkg/messaging"
	pkgotp "github.com/mobanklabs/otpgate/internal/pkg/otp"
	"github.com/mobanklabs/otpgate/internal/pkg/ratelimit"
	"github.com/mobanklabs/otpgate/internal/pkg/router"
	"github.com/mobanklabs/otpgate/internal/pkg/storage"
	"github.com/mobanklabs/otpgate/internal/pkg/uid"
	"github.com/mobanklabs/otpgate/internal/pkg/validator"
	"github.com/redis/go-redis/v9"
)

type Dependency struct {
	Ctx        context.Context
	DBConn     *pgxpool.Pool              `validate:"required"`
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Runner          `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Storage    storage.Storage            `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbOtp := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)
	repoMail := mailer.New(dep.Mail, dep.Instrument)

	policy := pkgotp.NewPolicy(
		dep.Config.GetInt("modules.otp.code_length"),
		dep.Config.GetSecond("modules.otp.validity_seconds"),
		pkgotp.NewCryptoRand(),
	)

	requestLimit := ratelimit.NewFixedWindow(dep.CacheConn, "otp:request",
		dep.Config.GetInt64("modules.otp.request_limit"),
		dep.Config.GetMinute("modules.otp.request_window_minutes"),
	)
	verifyLimit := ratelimit.NewFixedWindow(dep.CacheConn, "otp:verify",
		dep.Config.GetInt64("modules.otp.verify_limit"),
		dep.Config.GetMinute("modules.otp.verify_window_minutes"),
	)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbOtp,
		RepoMessaging: repoMsg,
		RepoMail:      repoMail,
		Validator:     dep.Validator,
		Config:        dep.Config,
		Policy:        policy,
		HMAC:          dep.HMAC,
		Archive:       dep.Storage,
		RequestLimit:  requestLimit,
		VerifyLimit:   verifyLimit,
		UID:           dep.UID,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	if dep.Ctx != nil && dep.Config.GetBool("modules.otp.sweeper_enabled") {
		dep.Goroutine.Go(dep.Ctx, uc.RunSweeper)
	}

	return nil
}
