package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/databases/mocks"
	"github.com/reliefline/disaster-response-api/models"
)

func TestIncidentDatabase_FindNearestPending(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	sr := &mocks.SingleResultHelper{}

	matchID := primitive.NewObjectID()
	sr.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Incident)
		(*arg).ID = matchID
		(*arg).Status = models.StatusPending
	})

	var captured bson.M
	collectionHelper.On("FindOne", mock.Anything, mock.MatchedBy(func(f bson.M) bool {
		captured = f
		return true
	})).Return(sr)
	dbHelper.On("Collection", "incidents").Return(collectionHelper)

	incidentDB := databases.NewIncidentDatabase(dbHelper)
	inc, err := incidentDB.FindNearestPending(context.Background(), "flood", models.NewPoint(9.01, 38.76), 5000)

	assert.NoError(t, err)
	assert.Equal(t, matchID, inc.ID)
	assert.Equal(t, "flood", captured["type"])
	assert.Equal(t, models.StatusPending, captured["status"])
	assert.Contains(t, captured["location"], "$nearSphere")
}

func TestIncidentDatabase_FindNearestPendingNone(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	sr := &mocks.SingleResultHelper{}

	sr.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(sr)
	dbHelper.On("Collection", "incidents").Return(collectionHelper)

	inc, err := databases.NewIncidentDatabase(dbHelper).
		FindNearestPending(context.Background(), "fire", models.NewPoint(0, 0), 5000)

	assert.NoError(t, err)
	assert.Nil(t, inc)
}

func TestIncidentDatabase_FindNearestPendingError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	sr := &mocks.SingleResultHelper{}

	sr.On("Decode", mock.Anything).Return(errors.New("mocked-error"))
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(sr)
	dbHelper.On("Collection", "incidents").Return(collectionHelper)

	inc, err := databases.NewIncidentDatabase(dbHelper).
		FindNearestPending(context.Background(), "fire", models.NewPoint(0, 0), 5000)

	assert.EqualError(t, err, "mocked-error")
	assert.Nil(t, inc)
}

func TestIncidentDatabase_SaveBumpsVersion(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	inc := &models.Incident{ID: primitive.NewObjectID(), Version: 4}
	collectionHelper.On("ReplaceOne", mock.Anything,
		bson.M{"_id": inc.ID, "__v": int32(4)},
		mock.MatchedBy(func(next models.Incident) bool { return next.Version == 5 }),
	).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	dbHelper.On("Collection", "incidents").Return(collectionHelper)

	err := databases.NewIncidentDatabase(dbHelper).Save(context.Background(), inc)

	assert.NoError(t, err)
	assert.Equal(t, int32(5), inc.Version)
}

func TestIncidentDatabase_SaveVersionConflict(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	inc := &models.Incident{ID: primitive.NewObjectID(), Version: 2}
	collectionHelper.On("ReplaceOne", mock.Anything, mock.Anything, mock.Anything).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	dbHelper.On("Collection", "incidents").Return(collectionHelper)

	err := databases.NewIncidentDatabase(dbHelper).Save(context.Background(), inc)

	assert.ErrorIs(t, err, databases.ErrVersionConflict)
	assert.Equal(t, int32(2), inc.Version)
}

func TestIncidentDatabase_FindByLocationName(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Incident)
		*arg = []models.Incident{{Title: "a"}, {Title: "b"}}
	})
	collectionHelper.On("Find", mock.Anything, bson.M{"location.name": "Geocoding failed"}, mock.Anything).
		Return(cursor, nil)
	dbHelper.On("Collection", "incidents").Return(collectionHelper)

	incidents, err := databases.NewIncidentDatabase(dbHelper).
		FindByLocationName(context.Background(), "Geocoding failed", 50)

	assert.NoError(t, err)
	assert.Len(t, incidents, 2)
}

func TestIncidentDatabase_DeleteAll(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("DeleteMany", mock.Anything, bson.M{}).Return(int64(7), nil)
	dbHelper.On("Collection", "incidents").Return(collectionHelper)

	n, err := databases.NewIncidentDatabase(dbHelper).DeleteAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(7), n)
}

func TestEnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	reports := &mocks.CollectionHelper{}
	incidents := &mocks.CollectionHelper{}

	reports.On("CreateIndexes", mock.Anything, mock.MatchedBy(func(m []mongo.IndexModel) bool { return len(m) == 3 })).Return(nil)
	incidents.On("CreateIndexes", mock.Anything, mock.Anything).Return(errors.New("mocked-error"))
	dbHelper.On("Collection", "reports").Return(reports)
	dbHelper.On("Collection", "incidents").Return(incidents)

	err := databases.EnsureIndexes(context.Background(), dbHelper)
	assert.EqualError(t, err, "failed to create incident indexes: mocked-error")
	reports.AssertExpectations(t)
}
