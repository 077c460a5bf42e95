// Package server boots the application: config, database, cache,
// storage, background workers, and the HTTP stack.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shashiranjanraj/sehatly/app/controllers"
	"github.com/shashiranjanraj/sehatly/app/repositories"
	"github.com/shashiranjanraj/sehatly/app/routes"
	"github.com/shashiranjanraj/sehatly/app/services"
	"github.com/shashiranjanraj/sehatly/config"
	"github.com/shashiranjanraj/sehatly/pkg/cache"
	"github.com/shashiranjanraj/sehatly/pkg/database"
	"github.com/shashiranjanraj/sehatly/pkg/event"
	"github.com/shashiranjanraj/sehatly/pkg/logger"
	"github.com/shashiranjanraj/sehatly/pkg/metrics"
	"github.com/shashiranjanraj/sehatly/pkg/middleware"
	"github.com/shashiranjanraj/sehatly/pkg/notification"
	"github.com/shashiranjanraj/sehatly/pkg/queue"
	"github.com/shashiranjanraj/sehatly/pkg/reqid"
	"github.com/shashiranjanraj/sehatly/pkg/router"
	"github.com/shashiranjanraj/sehatly/pkg/schedule"
	"github.com/shashiranjanraj/sehatly/pkg/storage"
	"github.com/shashiranjanraj/sehatly/pkg/stripe"
	"github.com/shashiranjanraj/sehatly/pkg/ws"
)

// Start boots every subsystem and serves HTTP until SIGINT/SIGTERM.
func Start() error {
	if err := config.Load(); err != nil {
		return err
	}

	bootCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Mongo is mandatory.
	if err := database.Connect(bootCtx); err != nil {
		return err
	}
	defer database.Disconnect(context.Background()) //nolint:errcheck

	// Ship application logs to Mongo alongside the default handler.
	mongoLogs := logger.NewMongoHandler(database.Collection("app_logs"), slog.LevelInfo)
	defer mongoLogs.Close()
	logger.SetHandler(logger.NewMultiHandler(logger.L.Handler(), mongoLogs))

	// Redis is optional: analytics caching and the durable queue
	// degrade gracefully without it.
	if err := cache.Connect(); err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
	} else if cache.RDB != nil {
		queue.SetDriver(queue.NewRedisDriver(cache.RDB))
	}

	if err := storage.Connect(); err != nil {
		return err
	}

	queue.Register("*services.VendorWelcomeJob", func() queue.Job { return &services.VendorWelcomeJob{} })
	queue.UseCollection(database.Collection("failed_jobs"))

	notification.UseCollection(database.Collection("notifications"))
	if hook := config.Get("SLACK_WEBHOOK", ""); hook != "" {
		notification.SetSlackWebhook(hook)
	}

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	queue.StartWorkers(workerCtx, 2)

	hub := ws.NewHub()
	go hub.Run()

	// Sweep due intake reminders once a minute and push them to the
	// realtime feed.
	reminderSweep := services.NewReminderService(repositories.NewReminderRepository())
	schedule.EveryMinute().Name("reminders.sweep").WithoutOverlapping().Run(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		fired, err := reminderSweep.DispatchDue(ctx, time.Now().UTC())
		if err != nil {
			logger.Error("reminder sweep failed", "error", err)
			return
		}
		for _, rem := range fired {
			msg, err := json.Marshal(map[string]interface{}{
				"type":       "reminderDue",
				"reminderId": rem.ID.Hex(),
				"userId":     rem.UserID.Hex(),
				"medicine":   rem.Medicine,
			})
			if err != nil {
				continue
			}
			hub.Broadcast(msg)
		}
	})
	schedule.Start(workerCtx)

	srv := &http.Server{
		Addr:              ":" + config.AppPort(),
		Handler:           buildHandler(hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("sehatly listening", "addr", srv.Addr, "env", config.AppEnv())
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}

// buildHandler wires repositories, services and controllers onto the
// router behind the global middleware stack.
func buildHandler(hub *ws.Hub) http.Handler {
	userRepo := repositories.NewUserRepository()
	medicineRepo := repositories.NewMedicineRepository()
	orderRepo := repositories.NewOrderRepository()
	incompatibleRepo := repositories.NewIncompatibleRepository()
	vendorRepo := repositories.NewVendorRepository()
	reminderRepo := repositories.NewReminderRepository()

	gateway := stripe.NewClient(config.StripeSecretKey())

	// Order events flow through the event bus so listeners beyond the
	// websocket hub can attach without touching checkout code.
	event.Listen("order.placed", func(payload interface{}) {
		if msg, ok := payload.([]byte); ok {
			hub.Broadcast(msg)
		}
	})
	notifier := services.HubNotifier{Broadcast: func(msg []byte) {
		event.Fire("order.placed", msg)
	}}

	authSvc := services.NewAuthService(userRepo)
	medicineSvc := services.NewMedicineService(medicineRepo, services.NewManagerImageStore())
	checkoutSvc := services.NewCheckoutService(orderRepo, medicineRepo, gateway, notifier, config.CheckoutBaseURL())
	incompatibleSvc := services.NewIncompatibleService(incompatibleRepo)
	analyticsSvc := services.NewAnalyticsService(orderRepo, userRepo, config.AnalyticsVisitors())
	vendorSvc := services.NewVendorService(vendorRepo, userRepo)
	reminderSvc := services.NewReminderService(reminderRepo)

	graphqlCtl, err := controllers.NewGraphQLController(medicineSvc, orderRepo)
	if err != nil {
		logger.Error("graphql schema init failed", "error", err)
		graphqlCtl = &controllers.GraphQLController{}
	}

	r := router.New()

	// Global middleware, outermost first:
	// metrics → recovery → request id → logger → CORS → rate limit.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions()))
	r.Use(middleware.RateLimit(200, time.Minute))

	routes.RegisterAPI(r, routes.Controllers{
		Auth:         controllers.NewAuthController(authSvc),
		Medicine:     controllers.NewMedicineController(medicineSvc),
		Order:        controllers.NewOrderController(checkoutSvc, hub),
		Payment:      controllers.NewPaymentController(checkoutSvc, config.StripeWebhookSecret()),
		Incompatible: controllers.NewIncompatibleController(incompatibleSvc),
		Analytics:    controllers.NewAnalyticsController(analyticsSvc),
		Vendor:       controllers.NewVendorController(vendorSvc),
		Reminder:     controllers.NewReminderController(reminderSvc),
		GraphQL:      graphqlCtl,
		Hub:          hub,
	})

	return r.Handler()
}

// Routes registers the API against a fresh router and returns the
// named route table. Used by the route:list command; no subsystem is
// booted and no handler is invoked.
func Routes() []router.RouteInfo {
	r := router.New()
	hub := ws.NewHub()
	routes.RegisterAPI(r, routes.Controllers{
		Auth:         controllers.NewAuthController(nil),
		Medicine:     controllers.NewMedicineController(nil),
		Order:        controllers.NewOrderController(nil, hub),
		Payment:      controllers.NewPaymentController(nil, ""),
		Incompatible: controllers.NewIncompatibleController(nil),
		Analytics:    controllers.NewAnalyticsController(nil),
		Vendor:       controllers.NewVendorController(nil),
		Reminder:     controllers.NewReminderController(nil),
		GraphQL:      &controllers.GraphQLController{},
		Hub:          hub,
	})
	return r.Routes()
}
