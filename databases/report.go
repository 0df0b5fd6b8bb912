package databases

// go generate: mockery --name ReportDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reliefline/disaster-response-api/models"
)

const reportName = "reports"

// ReportFilter narrows report listings. Zero values match everything.
type ReportFilter struct {
	Type       string
	ReportedBy *primitive.ObjectID
	Incident   *primitive.ObjectID
}

// ReportDatabase contains the methods to use with the report database
type ReportDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error)
	List(ctx context.Context, filter ReportFilter, page, limit int) ([]models.Report, int64, error)
	FindDuplicate(ctx context.Context, reportedBy primitive.ObjectID, disasterType string, point models.Location, radius float64) (*models.Report, error)
	InsertOne(ctx context.Context, report models.Report) error
	Save(ctx context.Context, report *models.Report) error
	DeleteOne(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) (int64, error)
	UnlinkIncident(ctx context.Context, incidentID primitive.ObjectID) (int64, error)
}

type reportDatabase struct {
	db DatabaseHelper
}

// NewReportDatabase initializes a new instance of report database with the provided db connection
func NewReportDatabase(db DatabaseHelper) ReportDatabase {
	return &reportDatabase{
		db: db,
	}
}

func (c *reportDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	report := &models.Report{}
	err := c.db.Collection(reportName).FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *reportDatabase) List(ctx context.Context, filter ReportFilter, page, limit int) ([]models.Report, int64, error) {
	f := bson.M{}
	if filter.Type != "" {
		f["type"] = filter.Type
	}
	if filter.ReportedBy != nil {
		f["reportedBy"] = *filter.ReportedBy
	}
	if filter.Incident != nil {
		f["incident"] = *filter.Incident
	}

	total, err := c.db.Collection(reportName).CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cr, err := c.db.Collection(reportName).Find(ctx, f, opts)
	if err != nil {
		return nil, 0, err
	}
	var reports []models.Report
	if err = cr.Decode(&reports); err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// FindDuplicate returns the nearest report by the same user and of the same type within
// radius meters of point, or nil when there is none.
func (c *reportDatabase) FindDuplicate(ctx context.Context, reportedBy primitive.ObjectID, disasterType string, point models.Location, radius float64) (*models.Report, error) {
	filter := bson.M{
		"reportedBy": reportedBy,
		"type":       disasterType,
		"location":   nearSphere(point, radius),
	}
	report := &models.Report{}
	err := c.db.Collection(reportName).FindOne(ctx, filter).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (c *reportDatabase) InsertOne(ctx context.Context, report models.Report) error {
	_, err := c.db.Collection(reportName).InsertOne(ctx, report)
	return err
}

func (c *reportDatabase) Save(ctx context.Context, report *models.Report) error {
	res, err := c.db.Collection(reportName).ReplaceOne(ctx, bson.M{"_id": report.ID}, report)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (c *reportDatabase) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	n, err := c.db.Collection(reportName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (c *reportDatabase) DeleteAll(ctx context.Context) (int64, error) {
	return c.db.Collection(reportName).DeleteMany(ctx, bson.M{})
}

// UnlinkIncident clears the incident reference of every report linked to incidentID
func (c *reportDatabase) UnlinkIncident(ctx context.Context, incidentID primitive.ObjectID) (int64, error) {
	res, err := c.db.Collection(reportName).UpdateMany(ctx,
		bson.M{"incident": incidentID},
		bson.M{"$set": bson.M{"incident": nil}},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
