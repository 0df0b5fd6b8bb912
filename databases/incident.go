package databases

// go generate: mockery --name IncidentDatabase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reliefline/disaster-response-api/models"
)

const incidentName = "incidents"

// ErrVersionConflict is returned by Save when the stored incident changed since it was read
var ErrVersionConflict = errors.New("incident was modified concurrently")

// IncidentFilter narrows incident listings. Zero values match everything.
type IncidentFilter struct {
	Status string
	Type   string
}

// IncidentDatabase contains the methods to use with the incident database
type IncidentDatabase interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Incident, error)
	List(ctx context.Context, filter IncidentFilter, page, limit int) ([]models.Incident, int64, error)
	FindNearestPending(ctx context.Context, disasterType string, point models.Location, radius float64) (*models.Incident, error)
	FindByLocationName(ctx context.Context, name string, limit int) ([]models.Incident, error)
	InsertOne(ctx context.Context, incident models.Incident) error
	Save(ctx context.Context, incident *models.Incident) error
	DeleteOne(ctx context.Context, id primitive.ObjectID) error
	DeleteAll(ctx context.Context) (int64, error)
}

type incidentDatabase struct {
	db DatabaseHelper
}

// NewIncidentDatabase initializes a new instance of incident database with the provided db connection
func NewIncidentDatabase(db DatabaseHelper) IncidentDatabase {
	return &incidentDatabase{
		db: db,
	}
}

func (c *incidentDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Incident, error) {
	incident := &models.Incident{}
	err := c.db.Collection(incidentName).FindOne(ctx, bson.M{"_id": id}).Decode(&incident)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (c *incidentDatabase) List(ctx context.Context, filter IncidentFilter, page, limit int) ([]models.Incident, int64, error) {
	f := bson.M{}
	if filter.Status != "" {
		f["status"] = filter.Status
	}
	if filter.Type != "" {
		f["type"] = filter.Type
	}

	total, err := c.db.Collection(incidentName).CountDocuments(ctx, f)
	if err != nil {
		return nil, 0, err
	}

	opts := newMongoPaginate(limit, page).getPaginatedOpts()
	opts.SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cr, err := c.db.Collection(incidentName).Find(ctx, f, opts)
	if err != nil {
		return nil, 0, err
	}
	var incidents []models.Incident
	if err = cr.Decode(&incidents); err != nil {
		return nil, 0, err
	}
	return incidents, total, nil
}

// FindNearestPending returns the nearest pending incident of the given type within
// radius meters of point, or nil when there is none. Equidistant candidates are
// resolved by the store.
func (c *incidentDatabase) FindNearestPending(ctx context.Context, disasterType string, point models.Location, radius float64) (*models.Incident, error) {
	filter := bson.M{
		"type":     disasterType,
		"status":   models.StatusPending,
		"location": nearSphere(point, radius),
	}
	incident := &models.Incident{}
	err := c.db.Collection(incidentName).FindOne(ctx, filter).Decode(&incident)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return incident, nil
}

func (c *incidentDatabase) FindByLocationName(ctx context.Context, name string, limit int) ([]models.Incident, error) {
	opts := options.Find().SetLimit(int64(limit))
	cr, err := c.db.Collection(incidentName).Find(ctx, bson.M{"location.name": name}, opts)
	if err != nil {
		return nil, err
	}
	var incidents []models.Incident
	if err = cr.Decode(&incidents); err != nil {
		return nil, err
	}
	return incidents, nil
}

func (c *incidentDatabase) InsertOne(ctx context.Context, incident models.Incident) error {
	_, err := c.db.Collection(incidentName).InsertOne(ctx, incident)
	return err
}

// Save replaces the stored incident if its version still matches and bumps the version.
// A missing document or a stale version yields ErrVersionConflict.
func (c *incidentDatabase) Save(ctx context.Context, incident *models.Incident) error {
	next := *incident
	next.Version = incident.Version + 1
	res, err := c.db.Collection(incidentName).ReplaceOne(ctx,
		bson.M{"_id": incident.ID, "__v": incident.Version},
		next,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	incident.Version = next.Version
	return nil
}

func (c *incidentDatabase) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	n, err := c.db.Collection(incidentName).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (c *incidentDatabase) DeleteAll(ctx context.Context) (int64, error) {
	return c.db.Collection(incidentName).DeleteMany(ctx, bson.M{})
}
