package databases

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// EnsureIndexes creates the geospatial and lookup indexes the report and incident
// queries rely on. It is safe to call on every start.
func EnsureIndexes(ctx context.Context, db DatabaseHelper) error {
	err := db.Collection(reportName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "reportedBy", Value: 1}, {Key: "type", Value: 1}}},
		{Keys: bson.D{{Key: "incident", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create report indexes: %w", err)
	}

	err = db.Collection(incidentName).CreateIndexes(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
		{Keys: bson.D{{Key: "type", Value: 1}, {Key: "status", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create incident indexes: %w", err)
	}
	return nil
}
