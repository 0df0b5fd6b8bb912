package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/reliefline/disaster-response-api/aggregator"
	"github.com/reliefline/disaster-response-api/api"
	"github.com/reliefline/disaster-response-api/config"
	"github.com/reliefline/disaster-response-api/databases"
	"github.com/reliefline/disaster-response-api/databases/memdb"
	"github.com/reliefline/disaster-response-api/enrichment"
	"github.com/reliefline/disaster-response-api/events"
	"github.com/reliefline/disaster-response-api/storage"
)

// memoryURI selects the in-memory store instead of MongoDB
const memoryURI = "memory://"

// App stores the router and its dependencies, so it can be reused
type App struct {
	Router  *mux.Router
	Config  config.Config
	Service *aggregator.Service
	Users   databases.UserDatabase
	Auth    *api.Authenticator
	Feed    *IncidentFeed
	Metrics *api.MetricsCollector

	client  databases.ClientHelper
	closers []io.Closer
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.Auth == nil {
		a.Auth = api.NewAuthenticator(a.Config.JWTSecret)
	}
	if a.Metrics == nil {
		a.Metrics = api.NewMetricsCollector()
	}
	if a.Feed == nil {
		a.Feed = NewIncidentFeed()
	}
	timeout := a.Config.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rep := Report{Svc: a.Service}
	inc := Incident{Svc: a.Service}
	u := User{DB: a.Users, Auth: a.Auth}

	r := mux.NewRouter()
	r.Use(api.RequestLogger(a.Metrics))

	// healthchex
	r.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")
	r.HandleFunc("/api/metrics", a.Metrics.MetricsHandler).Methods("GET")
	r.HandleFunc("/ws/incidents", a.Feed.HandleIncidentFeed).Methods("GET")

	apiRoutes := r.PathPrefix("/api").Subrouter()
	apiRoutes.Use(api.TimeoutMiddleware(timeout))

	apiRoutes.Handle("/users", http.HandlerFunc(u.RegisterUserHandler)).Methods("POST")

	apiRoutes.Handle("/report", a.Auth.Optional(http.HandlerFunc(rep.CreateReportHandler))).Methods("POST")
	apiRoutes.Handle("/report", http.HandlerFunc(rep.ReportsHandler)).Methods("GET")
	apiRoutes.Handle("/report", a.Auth.Middleware(http.HandlerFunc(rep.DeleteAllReportsHandler))).Methods("DELETE")
	apiRoutes.Handle("/report/{report_id}", http.HandlerFunc(rep.ReportByIDHandler)).Methods("GET")
	apiRoutes.Handle("/report/{report_id}", a.Auth.Middleware(http.HandlerFunc(rep.UpdateReportHandler))).Methods("PUT")
	apiRoutes.Handle("/report/{report_id}", a.Auth.Middleware(http.HandlerFunc(rep.DeleteReportHandler))).Methods("DELETE")

	apiRoutes.Handle("/incidents", http.HandlerFunc(inc.IncidentsHandler)).Methods("GET")
	apiRoutes.Handle("/incidents", a.Auth.Middleware(http.HandlerFunc(inc.DeleteAllIncidentsHandler))).Methods("DELETE")
	apiRoutes.Handle("/incidents/{incident_id}", http.HandlerFunc(inc.IncidentByIDHandler)).Methods("GET")
	apiRoutes.Handle("/incidents/{incident_id}", a.Auth.Middleware(http.HandlerFunc(inc.DeleteIncidentHandler))).Methods("DELETE")
	apiRoutes.Handle("/incidents/{incident_id}/status", a.Auth.Middleware(http.HandlerFunc(inc.UpdateIncidentStatusHandler))).Methods("PATCH")

	return r
}

// Initialize is invoked by main to connect with the database and external services and
// create a router
func (a *App) Initialize(ctx context.Context) error {
	var reports databases.ReportDatabase
	var incidents databases.IncidentDatabase

	if strings.HasPrefix(a.Config.URL, memoryURI) {
		store := memdb.New()
		reports, incidents, a.Users = store.Reports(), store.Incidents(), store.Users()
		zap.S().Warn("using the in-memory store, data will not survive a restart")
	} else {
		client, err := databases.NewClient(&a.Config)
		if err != nil {
			// if we fail to create a new database client, then kill the pod
			zap.S().Errorw("failed to create new client", "error", err)
			return err
		}
		if err = client.Connect(ctx); err != nil {
			// if we fail to connect to the database, then kill the pod
			zap.S().Errorw("failed to connect to database", "error", err)
			return err
		}
		a.client = client

		db := databases.NewDatabase(&a.Config, client)
		if err = databases.EnsureIndexes(ctx, db); err != nil {
			return err
		}
		reports = databases.NewReportDatabase(db)
		incidents = databases.NewIncidentDatabase(db)
		a.Users = databases.NewUserDatabase(db)
		zap.S().Info("disaster-response-api has connected to the database")
	}

	geocoder, err := enrichment.NewGoogleGeocoder(a.Config.MapsAPIKey, a.Config.GeocodeTimeout, a.Config.GeocodeRatePerSecond)
	if err != nil {
		return err
	}
	if a.Config.MapsAPIKey == "" {
		zap.S().Warn("MAPS_API_KEY is not set, incident locations will not be resolved")
	}

	var classifier enrichment.Classifier
	if a.Config.ClassifierURL != "" {
		classifier = enrichment.NewHTTPClassifier(a.Config.ClassifierURL, a.Config.ClassifierTimeout)
	}

	var images storage.ImageStore = storage.Unconfigured{}
	if a.Config.CloudinaryURL != "" {
		if images, err = storage.NewCloudinaryStore(a.Config.CloudinaryURL, a.Config.CloudinaryFolder); err != nil {
			return err
		}
	}

	a.Feed = NewIncidentFeed()
	publishers := events.Multi{a.Feed}
	if a.Config.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(a.Config.AMQPURL, a.Config.AMQPExchange)
		if err != nil {
			return err
		}
		publishers = append(publishers, amqpPublisher)
		a.closers = append(a.closers, amqpPublisher)
	}

	pipeline := enrichment.NewPipeline(a.Config.ReportThreshold, geocoder, classifier)
	a.Service = aggregator.New(reports, incidents, a.Users, images, pipeline, publishers, a.Config.EnableBulkDelete)

	a.Router = a.New()
	return nil
}

// Close releases the broker and database connections
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	if a.Feed != nil {
		a.Feed.Close()
	}
	if a.client != nil {
		errs = append(errs, a.client.Disconnect(ctx))
	}
	return errors.Join(errs...)
}
