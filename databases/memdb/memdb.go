// Package memdb is an in-memory implementation of the report, incident and user
// databases. It backs DB_URI=memory:// local runs and the service tests.
package memdb

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/disaster"
	"github.com/reliefline/disaster-response-api/models"
)

// Store holds every collection behind a single lock
type Store struct {
	mu        sync.RWMutex
	reports   map[primitive.ObjectID]models.Report
	incidents map[primitive.ObjectID]models.Incident
	users     map[primitive.ObjectID]models.User
}

// New returns an empty store
func New() *Store {
	return &Store{
		reports:   make(map[primitive.ObjectID]models.Report),
		incidents: make(map[primitive.ObjectID]models.Incident),
		users:     make(map[primitive.ObjectID]models.User),
	}
}

// Reports returns the report collection view
func (s *Store) Reports() databases.ReportDatabase { return reportDatabase{s} }

// Incidents returns the incident collection view
func (s *Store) Incidents() databases.IncidentDatabase { return incidentDatabase{s} }

// Users returns the user collection view
func (s *Store) Users() databases.UserDatabase { return userDatabase{s} }

func distance(a, b models.Location) float64 {
	return disaster.Distance(a.Latitude(), a.Longitude(), b.Latitude(), b.Longitude())
}

func paginate(n, page, limit int) (int, int) {
	if limit <= 0 {
		limit = databases.DefaultPageLimit
	}
	if limit > databases.MaxPageLimit {
		limit = databases.MaxPageLimit
	}
	if page <= 0 {
		page = 1
	}
	start := (page - 1) * limit
	if start > n {
		start = n
	}
	end := start + limit
	if end > n {
		end = n
	}
	return start, end
}

type reportDatabase struct{ s *Store }

func cloneReport(r models.Report) models.Report {
	c := r
	c.Images = append([]models.Image(nil), r.Images...)
	c.Location.Coordinates = append([]float64(nil), r.Location.Coordinates...)
	if r.Incident != nil {
		id := *r.Incident
		c.Incident = &id
	}
	return c
}

func (d reportDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Report, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	r, ok := d.s.reports[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	c := cloneReport(r)
	return &c, nil
}

func (d reportDatabase) List(ctx context.Context, filter databases.ReportFilter, page, limit int) ([]models.Report, int64, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var matched []models.Report
	for _, r := range d.s.reports {
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.ReportedBy != nil && r.ReportedBy != *filter.ReportedBy {
			continue
		}
		if filter.Incident != nil && (r.Incident == nil || *r.Incident != *filter.Incident) {
			continue
		}
		matched = append(matched, cloneReport(r))
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt != matched[j].CreatedAt {
			return matched[i].CreatedAt > matched[j].CreatedAt
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	start, end := paginate(len(matched), page, limit)
	return matched[start:end], int64(len(matched)), nil
}

func (d reportDatabase) FindDuplicate(ctx context.Context, reportedBy primitive.ObjectID, disasterType string, point models.Location, radius float64) (*models.Report, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var best *models.Report
	bestDist := radius
	for _, r := range d.s.reports {
		if r.ReportedBy != reportedBy || r.Type != disasterType {
			continue
		}
		if dist := distance(point, r.Location); dist <= bestDist {
			c := cloneReport(r)
			best, bestDist = &c, dist
		}
	}
	return best, nil
}

func (d reportDatabase) InsertOne(ctx context.Context, report models.Report) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.reports[report.ID]; ok {
		return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
	}
	d.s.reports[report.ID] = cloneReport(report)
	return nil
}

func (d reportDatabase) Save(ctx context.Context, report *models.Report) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.reports[report.ID]; !ok {
		return mongo.ErrNoDocuments
	}
	d.s.reports[report.ID] = cloneReport(*report)
	return nil
}

func (d reportDatabase) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.reports[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(d.s.reports, id)
	return nil
}

func (d reportDatabase) DeleteAll(ctx context.Context) (int64, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	n := int64(len(d.s.reports))
	d.s.reports = make(map[primitive.ObjectID]models.Report)
	return n, nil
}

func (d reportDatabase) UnlinkIncident(ctx context.Context, incidentID primitive.ObjectID) (int64, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var n int64
	for id, r := range d.s.reports {
		if r.Incident != nil && *r.Incident == incidentID {
			r.Incident = nil
			d.s.reports[id] = r
			n++
		}
	}
	return n, nil
}

type incidentDatabase struct{ s *Store }

func (d incidentDatabase) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Incident, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	inc, ok := d.s.incidents[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return inc.Clone(), nil
}

func (d incidentDatabase) List(ctx context.Context, filter databases.IncidentFilter, page, limit int) ([]models.Incident, int64, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var matched []models.Incident
	for _, inc := range d.s.incidents {
		if filter.Status != "" && inc.Status != filter.Status {
			continue
		}
		if filter.Type != "" && inc.Type != filter.Type {
			continue
		}
		matched = append(matched, *inc.Clone())
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt != matched[j].CreatedAt {
			return matched[i].CreatedAt > matched[j].CreatedAt
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	start, end := paginate(len(matched), page, limit)
	return matched[start:end], int64(len(matched)), nil
}

func (d incidentDatabase) FindNearestPending(ctx context.Context, disasterType string, point models.Location, radius float64) (*models.Incident, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var best *models.Incident
	bestDist := radius
	for _, inc := range d.s.incidents {
		if inc.Type != disasterType || inc.Status != models.StatusPending {
			continue
		}
		dist := distance(point, inc.Location)
		if dist > radius {
			continue
		}
		if best == nil || dist < bestDist || (dist == bestDist && inc.ID.Hex() < best.ID.Hex()) {
			best, bestDist = inc.Clone(), dist
		}
	}
	return best, nil
}

func (d incidentDatabase) FindByLocationName(ctx context.Context, name string, limit int) ([]models.Incident, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	var out []models.Incident
	for _, inc := range d.s.incidents {
		if limit > 0 && len(out) >= limit {
			break
		}
		if inc.Location.Name == name {
			out = append(out, *inc.Clone())
		}
	}
	return out, nil
}

func (d incidentDatabase) InsertOne(ctx context.Context, incident models.Incident) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.incidents[incident.ID]; ok {
		return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
	}
	d.s.incidents[incident.ID] = *incident.Clone()
	return nil
}

func (d incidentDatabase) Save(ctx context.Context, incident *models.Incident) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	stored, ok := d.s.incidents[incident.ID]
	if !ok || stored.Version != incident.Version {
		return databases.ErrVersionConflict
	}
	next := incident.Clone()
	next.Version++
	d.s.incidents[incident.ID] = *next
	incident.Version = next.Version
	return nil
}

func (d incidentDatabase) DeleteOne(ctx context.Context, id primitive.ObjectID) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.incidents[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(d.s.incidents, id)
	return nil
}

func (d incidentDatabase) DeleteAll(ctx context.Context) (int64, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	n := int64(len(d.s.incidents))
	d.s.incidents = make(map[primitive.ObjectID]models.Incident)
	return n, nil
}

type userDatabase struct{ s *Store }

func (d userDatabase) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	_, ok := d.s.users[id]
	return ok, nil
}

func (d userDatabase) InsertOne(ctx context.Context, user models.User) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	d.s.users[user.ID] = user
	return nil
}
