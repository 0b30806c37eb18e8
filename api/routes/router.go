package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hostelmart/hostelmart-backend/api/controllers"
	ordercontrollers "github.com/hostelmart/hostelmart-backend/api/controllers/orders"
	"github.com/hostelmart/hostelmart-backend/api/middleware"
	"github.com/hostelmart/hostelmart-backend/internal/inventory"
	"github.com/hostelmart/hostelmart-backend/internal/ledger"
	"github.com/hostelmart/hostelmart-backend/internal/orders"
	"github.com/hostelmart/hostelmart-backend/internal/push"
	"github.com/hostelmart/hostelmart-backend/internal/reports"
	"github.com/hostelmart/hostelmart-backend/pkg/config"
	"github.com/hostelmart/hostelmart-backend/pkg/logger"
	"github.com/hostelmart/hostelmart-backend/pkg/security"
)

// Services bundles the domain services the router dispatches to.
type Services struct {
	Orders    orders.Service
	Inventory inventory.Service
	Reports   reports.Service
	Ledger    ledger.Service
	Push      push.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	backend controllers.Pinger,
	gate *security.AdminGate,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg.App.Env))
		r.Get("/ready", controllers.HealthReady(cfg.App.Env, logg, backend))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/stock", controllers.GetStock(svc.Inventory, logg))
	if cfg.Shop.OpenStockWrites {
		r.Post("/stock", controllers.SaveStock(svc.Inventory, logg))
	} else {
		r.Post("/stock", controllers.ReplaceStock(svc.Inventory, gate, logg))
	}
	r.Get("/buy-price", controllers.GetPrices(svc.Inventory, inventory.BuyPrice, logg))
	r.Post("/buy-price", controllers.ReplacePrices(svc.Inventory, inventory.BuyPrice, gate, logg))
	r.Get("/sell-price", controllers.GetPrices(svc.Inventory, inventory.SellPrice, logg))
	r.Post("/sell-price", controllers.ReplacePrices(svc.Inventory, inventory.SellPrice, gate, logg))
	r.Get("/distributor-stock", controllers.GetDistributorStock(svc.Inventory, logg))
	r.Post("/distributor-stock", controllers.ReplaceDistributorStock(svc.Inventory, gate, logg))
	r.Get("/store-status", controllers.GetStoreStatus(svc.Inventory, logg))
	r.Post("/store-status", controllers.SetStoreStatus(svc.Inventory, gate, logg))

	r.Post("/order", ordercontrollers.Place(svc.Orders, logg))
	r.Post("/cancel-order", ordercontrollers.Cancel(svc.Orders, logg))
	r.Get("/orders", ordercontrollers.List(svc.Orders, logg))

	r.Get("/today-report", controllers.TodayReport(svc.Reports, logg))
	r.Get("/top-customers", controllers.TopCustomers(svc.Reports, logg))
	r.Get("/customers-report", controllers.CustomersReport(svc.Reports, logg))
	r.Get("/customers-report/export", controllers.ExportCustomersReport(svc.Reports, logg))
	r.Get("/customers-lifetime", controllers.CustomersLifetime(svc.Reports, logg))
	r.Get("/customers-lifetime/export", controllers.ExportCustomersLifetime(svc.Reports, logg))
	r.Get("/distributor-month-summary", controllers.DistributorMonthSummary(svc.Reports, logg))

	r.Route("/admin", func(r chi.Router) {
		r.Post("/order-status", ordercontrollers.AdminStatus(svc.Orders, gate, logg))
		r.Post("/adjust-order", ordercontrollers.Adjust(svc.Orders, gate, logg))
		r.Post("/reset-customer-money", ordercontrollers.ResetCustomerMoney(svc.Orders, gate, logg))
		r.Post("/reset-profit", ordercontrollers.ResetProfit(svc.Orders, gate, logg))
		r.Get("/customer-spend", controllers.ListCustomerSpend(svc.Ledger, gate, logg))
		r.Post("/customer-spend", controllers.UpsertCustomerSpend(svc.Ledger, gate, logg))
		r.Post("/customer-spend/delete", controllers.DeleteCustomerSpend(svc.Ledger, gate, logg))
	})

	r.Route("/push", func(r chi.Router) {
		r.Get("/public-key", controllers.PushPublicKey(svc.Push, logg))
		r.Post("/subscribe", controllers.PushSubscribe(svc.Push, logg))
		r.Post("/unsubscribe", controllers.PushUnsubscribe(svc.Push, logg))
	})

	if cfg.App.StaticDir != "" {
		r.Get("/*", http.FileServer(http.Dir(cfg.App.StaticDir)).ServeHTTP)
	}

	return r
}
