// Package janitor runs periodic maintenance jobs against the referral store.
package janitor

import (
	"context"
	"time"

	"BC_telegram_miniapp/internal/service"
	"BC_telegram_miniapp/pkg/logger"
	"go.uber.org/zap"

	"github.com/go-co-op/gocron"
)

// PendingReferralTTL bounds how long an unconsumed /start referral stays
// claimable. A user who opens the app months after clicking an invite link
// should not still credit the referrer.
const PendingReferralTTL = 30 * 24 * time.Hour

type Janitor struct {
	scheduler *gocron.Scheduler
	referrals service.ReferralServiceI
}

func New(referrals service.ReferralServiceI) *Janitor {
	return &Janitor{
		scheduler: gocron.NewScheduler(time.UTC),
		referrals: referrals,
	}
}

// Start schedules the daily expiry sweep and runs it in the background.
func (j *Janitor) Start() {
	j.scheduler.Every(1).Day().At("03:00").Do(j.expirePendingReferrals)
	j.scheduler.StartAsync()
}

func (j *Janitor) Stop() {
	j.scheduler.Stop()
}

func (j *Janitor) expirePendingReferrals() {
	log := logger.Logger()

	cutoff := time.Now().UTC().Add(-PendingReferralTTL)
	expired, err := j.referrals.ExpireStale(context.Background(), cutoff)
	if err != nil {
		log.Error("failed to expire pending referrals", zap.Error(err))
		return
	}

	if expired > 0 {
		log.Info("expired stale pending referrals",
			zap.Int64("count", expired),
			zap.Time("cutoff", cutoff))
	}
}
