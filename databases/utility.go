package databases

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/reliefline/disaster-response-api/models"
)

// DefaultPageLimit is used when a caller asks for a non-positive page size
const DefaultPageLimit = 10

// MaxPageLimit caps the page size of list queries
const MaxPageLimit = 100

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// nearSphere builds a $nearSphere clause on a GeoJSON point bounded by radius meters.
// Results come back ordered nearest first.
func nearSphere(point models.Location, radius float64) bson.M {
	return bson.M{
		"$nearSphere": bson.M{
			"$geometry": bson.M{
				"type":        "Point",
				"coordinates": bson.A{point.Longitude(), point.Latitude()},
			},
			"$maxDistance": radius,
		},
	}
}
