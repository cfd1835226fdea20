package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mobanklabs/otpgate/internal/otp/entity"
	"github.com/mobanklabs/otpgate/internal/pkg/goerror"
	"github.com/mobanklabs/otpgate/internal/pkg/storage"
	"github.com/samber/lo"
)

type archivedRecord struct {
	ID         int64      `json:"id"`
	UserID     string     `json:"user_id"`
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ConsumedAt *time.Time `json:"consumed_at,omitempty"`
}

// Sweep removes records that expired longer than the grace period ago and
// archives them as JSON lines in the configured bucket. Digests are not
// archived.
func (s *Usecase) Sweep(ctx context.Context) error {
	ctx, span := s.startSpan(ctx, "Sweep")
	defer span.End()

	now := s.clock.Now()
	before := now.Add(-s.cfg.GetHour("modules.otp.purge_grace_hours"))

	purged, err := s.repoDB.PurgeExpired(ctx, before)
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo purge expired codes", "error", err)
		return goerror.NewServer(err)
	}
	if len(purged) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "purged expired otp codes", "count", len(purged), "before", before)

	lines := lo.Map(purged, func(rec entity.Record, _ int) archivedRecord {
		return archivedRecord{
			ID:         rec.ID,
			UserID:     rec.UserID,
			CreatedAt:  rec.CreatedAt,
			ExpiresAt:  rec.ExpiresAt,
			ConsumedAt: rec.ConsumedAt,
		}
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, line := range lines {
		if err := enc.Encode(line); err != nil {
			slog.ErrorContext(ctx, "failed to encode archive line", "error", err)
			return goerror.NewServer(err)
		}
	}

	bucket := s.cfg.GetString("modules.otp.archive_bucket")
	key := fmt.Sprintf("otp/%s/purged-%d.jsonl", now.UTC().Format("2006-01-02"), now.UnixNano())

	if _, err := s.archive.PutObject(ctx, bucket, key, &buf, storage.PutOptions{
		Size:        int64(buf.Len()),
		ContentType: "application/x-ndjson",
	}); err != nil {
		slog.ErrorContext(ctx, "failed to archive purged codes", "bucket", bucket, "key", key, "error", err)
		return goerror.NewServer(err)
	}

	return nil
}

// RunSweeper executes Sweep on the configured interval until ctx is done.
func (s *Usecase) RunSweeper(ctx context.Context) error {
	interval := s.cfg.GetMinute("modules.otp.sweep_interval_minutes")
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.Sweep(ctx); err != nil {
				slog.ErrorContext(ctx, "sweep run failed", "error", err)
			}
		}
	}
}
