package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/time/rate"

	"github.com/ybhrdwj/mittens-bot/internal/app"
	"github.com/ybhrdwj/mittens-bot/internal/handler"
	"github.com/ybhrdwj/mittens-bot/internal/middleware"
)

// SetupRoutes wires the query API: the goals progress endpoint consumed by
// the mini app, the mini-app page itself, and the metrics endpoint.
func SetupRoutes(app *app.App) http.Handler {
	goal := handler.NewGoalHandler(app.GoalService)
	page := handler.NewWebAppHandler()

	// 60 req/min per IP with a small burst; the endpoint is unauthenticated.
	limiter := middleware.NewRateLimiter(rate.Limit(1), 30)

	r := chi.NewRouter()

	r.Use(middleware.Recovery)
	r.Use(middleware.RequestLogging)
	r.Use(app.Metrics.HTTPMiddleware)

	r.With(limiter.Middleware).Get("/goals", goal.ListGoals)
	r.Get("/", page.Page)
	r.Method(http.MethodGet, "/metrics", app.Metrics.Handler())

	return r
}
