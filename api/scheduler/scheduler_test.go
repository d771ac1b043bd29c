package scheduler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/policeops/criminal-case-api/api/scheduler"
	mocksdb "github.com/policeops/criminal-case-api/databases/mocks"
	"github.com/policeops/criminal-case-api/models"
)

func TestSweepMostWantedEscalatesOverduePursuits(t *testing.T) {
	var gotFilter, gotUpdate bson.M

	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			gotFilter = args.Get(1).(bson.M)
			gotUpdate = args.Get(2).(bson.M)
		}).
		Return(int64(3), nil)

	s := scheduler.NewScheduler(sdb)
	s.SweepMostWanted()

	sdb.AssertCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, models.SuspectStatusUnderInvestigation, gotFilter["suspect.status"])

	cutoff, ok := gotFilter["suspect.firstPursuitDate"].(bson.M)
	assert.True(t, ok)
	_, ok = cutoff["$lt"].(primitive.DateTime)
	assert.True(t, ok)

	set := gotUpdate["$set"].(bson.M)
	assert.Equal(t, models.SuspectStatusMostWanted, set["suspect.status"])
}

func TestSweepMostWantedSurvivesDatabaseError(t *testing.T) {
	sdb := &mocksdb.SuspectDatabase{}
	sdb.On("UpdateMany", mock.Anything, mock.Anything, mock.Anything).
		Return(int64(0), assert.AnError)

	s := scheduler.NewScheduler(sdb)
	s.SweepMostWanted()

	sdb.AssertCalled(t, "UpdateMany", mock.Anything, mock.Anything, mock.Anything)
}
