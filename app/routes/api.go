// Package routes wires the HTTP surface: every endpoint, its
// middleware stack and its controller.
package routes

import (
	"net/http"

	"github.com/shashiranjanraj/sehatly/app/controllers"
	"github.com/shashiranjanraj/sehatly/app/models"
	"github.com/shashiranjanraj/sehatly/pkg/metrics"
	"github.com/shashiranjanraj/sehatly/pkg/middleware"
	"github.com/shashiranjanraj/sehatly/pkg/rbac"
	"github.com/shashiranjanraj/sehatly/pkg/response"
	"github.com/shashiranjanraj/sehatly/pkg/router"
	"github.com/shashiranjanraj/sehatly/pkg/ws"
)

// Controllers bundles everything RegisterAPI mounts.
type Controllers struct {
	Auth         *controllers.AuthController
	Medicine     *controllers.MedicineController
	Order        *controllers.OrderController
	Payment      *controllers.PaymentController
	Incompatible *controllers.IncompatibleController
	Analytics    *controllers.AnalyticsController
	Vendor       *controllers.VendorController
	Reminder     *controllers.ReminderController
	GraphQL      *controllers.GraphQLController
	Hub          *ws.Hub
}

// RegisterAPI mounts the full API surface on the router.
func RegisterAPI(r *router.Router, c Controllers) {
	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", "auth.register", c.Auth.Register, rbac.Guest)
	auth.Post("/login", "auth.login", c.Auth.Login, rbac.Guest)

	// Catalogue
	api.Get("/medicines", "medicines.index", c.Medicine.Index)
	vendorMeds := api.Group("/medicines", middleware.RequireAuth)
	vendorMeds.Post("/add", "medicines.add", c.Medicine.Add)
	vendorMeds.Get("/vendor", "medicines.vendor", c.Medicine.VendorIndex)
	vendorMeds.Put("/update-stock/{id}", "medicines.restock", c.Medicine.UpdateStock)

	// Orders
	orders := api.Group("/orders", middleware.RequireAuth)
	orders.Post("/cod", "orders.cod", c.Order.PlaceCOD)
	orders.Get("/my-orders", "orders.mine", c.Order.MyOrders)
	orders.Get("/stream", "orders.stream", c.Order.Stream, rbac.HasRole(models.RoleAdmin))

	// Payments. The webhook stays outside RequireAuth: Stripe signs it
	// with the webhook secret instead of a bearer token.
	api.Post("/payments/create-payment", "payments.create", c.Payment.CreatePayment, middleware.RequireAuth)
	api.Post("/payments/webhook", "payments.webhook", c.Payment.Webhook)

	// Drug incompatibility
	incompatible := api.Group("/incompatible")
	incompatible.Post("/check", "incompatible.check", c.Incompatible.Check)
	incompatible.Post("/add", "incompatible.add", c.Incompatible.Add,
		middleware.RequireAuth, rbac.HasRole(models.RoleAdmin))
	incompatible.Get("/all", "incompatible.all", c.Incompatible.All,
		middleware.RequireAuth, rbac.HasRole(models.RoleAdmin))

	// Admin analytics
	admin := api.Group("/admin", middleware.RequireAuth, rbac.HasRole(models.RoleAdmin))
	admin.Get("/analytics", "admin.stats", c.Analytics.Stats)
	admin.Get("/total-revenue", "admin.revenue", c.Analytics.TotalRevenue)
	admin.Get("/profit-margin", "admin.profit", c.Analytics.ProfitMargin)
	admin.Get("/aov", "admin.aov", c.Analytics.AOV)
	admin.Get("/conversion-rate", "admin.conversion", c.Analytics.ConversionRate)
	admin.Get("/clv", "admin.clv", c.Analytics.CLV)
	admin.Get("/top-medicines", "admin.top", c.Analytics.TopMedicines)
	admin.Get("/growth-rate", "admin.growth", c.Analytics.GrowthRate)
	admin.Get("/revenue-history", "admin.history", c.Analytics.RevenueHistory)

	// Admin GraphQL
	api.Post("/graphql", "admin.graphql", c.GraphQL.Query,
		middleware.RequireAuth, rbac.HasRole(models.RoleAdmin))

	// Vendor onboarding
	vendors := api.Group("/vendors")
	vendors.Post("/request", "vendors.request", c.Vendor.SubmitRequest)
	vendorAdmin := vendors.Group("", middleware.RequireAuth, rbac.HasRole(models.RoleAdmin))
	vendorAdmin.Get("/requests", "vendors.requests", c.Vendor.ListRequests)
	vendorAdmin.Post("/requests/{id}/approve", "vendors.approve", c.Vendor.Approve)
	vendorAdmin.Post("/requests/{id}/reject", "vendors.reject", c.Vendor.Reject)

	// Reminders
	reminders := api.Group("/reminders", middleware.RequireAuth)
	reminders.Get("/my-reminders", "reminders.mine", c.Reminder.MyReminders)
	reminders.Post("/add", "reminders.add", c.Reminder.Add)
	reminders.Put("/{id}", "reminders.snooze", c.Reminder.Snooze)
	reminders.Delete("/{id}", "reminders.delete", c.Reminder.Delete)

	// Realtime order feed for the admin dashboard
	r.Get("/ws/orders", "ws.orders", func(w http.ResponseWriter, req *http.Request) {
		ws.Upgrade(w, req, c.Hub)
	})

	// Operational
	r.Get("/metrics", "metrics", metrics.Handler().ServeHTTP)
	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.Success(w, map[string]string{"status": "ok"})
	})
}
