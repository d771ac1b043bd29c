// Package scheduler runs the periodic background jobs for the case workflow.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/policeops/criminal-case-api/databases"
	"github.com/policeops/criminal-case-api/models"
)

// Scheduler handles periodic background jobs for suspect escalation
type Scheduler struct {
	cron *cron.Cron
	SDB  databases.SuspectDatabase
}

// NewScheduler creates a new scheduler instance
func NewScheduler(sDB databases.SuspectDatabase) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithLocation(time.UTC)),
		SDB:  sDB,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Escalate long-running pursuits to most wanted hourly. Reads also
	// escalate lazily, the sweep just keeps stored statuses from going
	// stale between reads.
	_, err := s.cron.AddFunc("0 * * * *", s.SweepMostWanted)
	if err != nil {
		zap.S().Errorw("failed to register most wanted sweep job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Suspect escalation scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Suspect escalation scheduler stopped")
}

// SweepMostWanted marks every suspect pursued past the threshold as most
// wanted. The filter carries the current status so the sweep is idempotent
// and never races the arrest and release transitions.
func (s *Scheduler) SweepMostWanted() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	cutoff := time.Now().UTC().AddDate(0, 0, -models.MostWantedAfterDays)
	filter := bson.M{
		"suspect.status":           models.SuspectStatusUnderInvestigation,
		"suspect.firstPursuitDate": bson.M{"$lt": primitive.NewDateTimeFromTime(cutoff)},
	}
	update := bson.M{
		"$set": bson.M{
			"suspect.status":   models.SuspectStatusMostWanted,
			"suspect.markedAt": primitive.NewDateTimeFromTime(time.Now().UTC()),
		},
	}

	modified, err := s.SDB.UpdateMany(ctx, filter, update)
	if err != nil {
		zap.S().Errorw("most wanted sweep failed", "error", err)
		return
	}
	if modified > 0 {
		zap.S().Infow("Most wanted sweep complete", "escalated", modified)
	}
}
