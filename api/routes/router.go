package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/edilsuite/gestionale-backend/api/controllers"
	"github.com/edilsuite/gestionale-backend/api/middleware"
	"github.com/edilsuite/gestionale-backend/internal/documents"
	"github.com/edilsuite/gestionale-backend/internal/inventory"
	"github.com/edilsuite/gestionale-backend/internal/sites"
	"github.com/edilsuite/gestionale-backend/pkg/config"
	"github.com/edilsuite/gestionale-backend/pkg/db"
	"github.com/edilsuite/gestionale-backend/pkg/logger"
	"github.com/edilsuite/gestionale-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	database *db.Client,
	redisClient *redis.Client,
	documentsService documents.Service,
	inventoryService inventory.Service,
	siteProjector *sites.Projector,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var dbPinger db.Pinger
	if database != nil {
		dbPinger = database
	}
	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbPinger, redisPinger, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))

		r.Route("/documents", func(r chi.Router) {
			r.Get("/", controllers.DocumentList(documentsService, logg))
			r.Post("/", controllers.DocumentCreate(documentsService, logg))
			r.Route("/{documentId}", func(r chi.Router) {
				r.Get("/", controllers.DocumentGet(documentsService, logg))
				r.Put("/", controllers.DocumentUpdate(documentsService, logg))
				r.Post("/confirm", controllers.DocumentConfirm(documentsService, logg))
				r.Post("/in-transit", controllers.DocumentMarkInTransit(documentsService, logg))
				r.Post("/deliver", controllers.DocumentDeliver(documentsService, logg))
				r.Post("/cancel", controllers.DocumentCancel(documentsService, logg))
			})
		})

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/low-stock", controllers.InventoryLowStock(inventoryService, logg))
			r.Post("/adjustments", controllers.InventoryAdjust(inventoryService, logg))
			r.Post("/reservations", controllers.InventoryReserve(inventoryService, logg))
			r.Post("/releases", controllers.InventoryRelease(inventoryService, logg))
			r.Route("/warehouses/{warehouseId}", func(r chi.Router) {
				r.Get("/", controllers.InventoryByWarehouse(inventoryService, logg))
				r.Get("/products/{productId}", controllers.InventoryRecordGet(inventoryService, logg))
				r.Put("/products/{productId}/threshold", controllers.InventoryThresholdSet(inventoryService, logg))
			})
		})

		r.Route("/movements", func(r chi.Router) {
			r.Get("/", controllers.MovementList(inventoryService, logg))
			r.Get("/{movementId}", controllers.MovementGet(inventoryService, logg))
		})

		r.Route("/sites/{siteId}/materials", func(r chi.Router) {
			r.Get("/", controllers.SiteMaterialsList(siteProjector, logg))
			r.Put("/{productId}/plan", controllers.SiteMaterialPlanSet(siteProjector, database, logg))
		})
	})

	return r
}
