package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reliefline/disaster-response-api/config"
	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/databases/mocks"
	"github.com/reliefline/disaster-response-api/models"
)

func TestNewReportDatabase(t *testing.T) {
	_ = os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	_ = os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)

	reportDB := databases.NewReportDatabase(db)

	assert.NotEmpty(t, reportDB)
}

func TestReportDatabase_FindByID(t *testing.T) {
	badID := primitive.NewObjectID()
	goodID := primitive.NewObjectID()

	// define variables for interfaces
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperErr databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	// set interfaces implementation to mocked structures
	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperErr = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperErr.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(errors.New("mocked-error"))

	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Report)
		(*arg).ID = goodID
		(*arg).Type = "flood"
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"_id": badID}).
		Return(srHelperErr)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"_id": goodID}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "reports").Return(collectionHelper)

	reportDB := databases.NewReportDatabase(dbHelper)

	report, err := reportDB.FindByID(context.Background(), badID)
	assert.Empty(t, report)
	assert.EqualError(t, err, "mocked-error")

	report, err = reportDB.FindByID(context.Background(), goodID)
	assert.NoError(t, err)
	assert.Equal(t, &models.Report{ID: goodID, Type: "flood"}, report)
}

func TestReportDatabase_FindDuplicate(t *testing.T) {
	reporter := primitive.NewObjectID()
	point := models.NewPoint(9.01, 38.76)

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srNoDocs := &mocks.SingleResultHelper{}

	srNoDocs.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)

	var captured bson.M
	collectionHelper.
		On("FindOne", context.Background(), mock.MatchedBy(func(f bson.M) bool {
			captured = f
			return true
		})).
		Return(srNoDocs)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDB := databases.NewReportDatabase(dbHelper)
	existing, err := reportDB.FindDuplicate(context.Background(), reporter, "flood", point, 5000)

	assert.NoError(t, err)
	assert.Nil(t, existing)
	assert.Equal(t, reporter, captured["reportedBy"])
	assert.Equal(t, "flood", captured["type"])

	near := captured["location"].(bson.M)["$nearSphere"].(bson.M)
	assert.Equal(t, 5000.0, near["$maxDistance"])
	assert.Equal(t, bson.A{38.76, 9.01}, near["$geometry"].(bson.M)["coordinates"])
}

func TestReportDatabase_FindDuplicateFound(t *testing.T) {
	existingID := primitive.NewObjectID()

	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	sr := &mocks.SingleResultHelper{}

	sr.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Report)
		(*arg).ID = existingID
	})
	collectionHelper.On("FindOne", mock.Anything, mock.Anything).Return(sr)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDB := databases.NewReportDatabase(dbHelper)
	existing, err := reportDB.FindDuplicate(context.Background(), primitive.NewObjectID(), "fire", models.NewPoint(1, 1), 5000)

	assert.NoError(t, err)
	assert.Equal(t, existingID, existing.ID)
}

func TestReportDatabase_List(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	id := primitive.NewObjectID()
	cursor.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*[]models.Report)
		*arg = []models.Report{{ID: id}}
	})
	collectionHelper.On("CountDocuments", mock.Anything, bson.M{"type": "flood"}).Return(int64(11), nil)
	collectionHelper.On("Find", mock.Anything, bson.M{"type": "flood"}, mock.Anything).Return(cursor, nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDB := databases.NewReportDatabase(dbHelper)
	reports, total, err := reportDB.List(context.Background(), databases.ReportFilter{Type: "flood"}, 2, 10)

	assert.NoError(t, err)
	assert.Equal(t, int64(11), total)
	assert.Equal(t, []models.Report{{ID: id}}, reports)
}

func TestReportDatabase_ListCountError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CountDocuments", mock.Anything, bson.M{}).Return(int64(0), errors.New("mocked-error"))
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDB := databases.NewReportDatabase(dbHelper)
	reports, total, err := reportDB.List(context.Background(), databases.ReportFilter{}, 1, 10)

	assert.EqualError(t, err, "mocked-error")
	assert.Nil(t, reports)
	assert.Zero(t, total)
}

func TestReportDatabase_SaveMissing(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	report := &models.Report{ID: primitive.NewObjectID()}
	collectionHelper.On("ReplaceOne", mock.Anything, bson.M{"_id": report.ID}, report).
		Return(&mongo.UpdateResult{MatchedCount: 0}, nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	err := databases.NewReportDatabase(dbHelper).Save(context.Background(), report)
	assert.ErrorIs(t, err, mongo.ErrNoDocuments)
}

func TestReportDatabase_DeleteOne(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	gone := primitive.NewObjectID()
	present := primitive.NewObjectID()
	collectionHelper.On("DeleteOne", mock.Anything, bson.M{"_id": gone}).Return(int64(0), nil)
	collectionHelper.On("DeleteOne", mock.Anything, bson.M{"_id": present}).Return(int64(1), nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	reportDB := databases.NewReportDatabase(dbHelper)
	assert.ErrorIs(t, reportDB.DeleteOne(context.Background(), gone), mongo.ErrNoDocuments)
	assert.NoError(t, reportDB.DeleteOne(context.Background(), present))
}

func TestReportDatabase_UnlinkIncident(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	incidentID := primitive.NewObjectID()
	collectionHelper.On("UpdateMany", mock.Anything,
		bson.M{"incident": incidentID},
		bson.M{"$set": bson.M{"incident": nil}},
	).Return(&mongo.UpdateResult{MatchedCount: 3, ModifiedCount: 3}, nil)
	dbHelper.On("Collection", "reports").Return(collectionHelper)

	n, err := databases.NewReportDatabase(dbHelper).UnlinkIncident(context.Background(), incidentID)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
