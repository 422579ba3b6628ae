// Package server wires the HTTP routes of the contact manager: the HTML list page, the JSON API
// below /api/contacts and the operational endpoints.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gitlab.com/dirk.krummacker/contact-manager/internal/metrics"
	"gitlab.com/dirk.krummacker/contact-manager/internal/model"
)

// Contacts is the contact logic shared by the page and the API handlers.
type Contacts interface {
	List(ctx context.Context, page model.Page) ([]model.Contact, error)
	Get(ctx context.Context, id int64) (model.Contact, error)
	Create(ctx context.Context, input model.Contact) (model.Contact, error)
	Update(ctx context.Context, id int64, input model.Contact) (model.Contact, error)
	Delete(ctx context.Context, id int64) error
}

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Options are the dependencies of the router. Only Contacts is mandatory.
type Options struct {
	Contacts       Contacts
	Database       Pinger
	Logger         *slog.Logger
	Metrics        *metrics.Metrics
	Gatherer       prometheus.Gatherer
	RequestLogging bool
}

// NewRouter initializes the gin engine and registers all endpoints.
func NewRouter(opts Options) *gin.Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	router := gin.New()
	router.Use(RequestID(opts.Logger), Recovery())
	if opts.RequestLogging {
		router.Use(RequestLogger())
	}
	if opts.Metrics != nil {
		router.Use(Latency(opts.Metrics))
	}
	router.SetHTMLTemplate(pageTemplates)

	pages := &pageHandler{contacts: opts.Contacts}
	router.GET("/", pages.index)
	router.GET("/home", pages.index)
	router.GET("/home/index", pages.index)

	api := &apiHandler{contacts: opts.Contacts}
	contacts := router.Group("/api/contacts")
	contacts.GET("", api.findContacts)
	contacts.POST("", api.createContact)
	contacts.GET("/:id", api.findContactByID)
	contacts.PUT("/:id", api.updateContactByID)
	contacts.DELETE("/:id", api.deleteContactByID)

	health := &healthHandler{database: opts.Database}
	router.GET("/health/live", health.live)
	router.GET("/health/ready", health.ready)

	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	router.NoRoute(func(c *gin.Context) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "not found"})
	})
	return router
}
