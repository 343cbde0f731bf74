package routes

import (
	"fmt"

	"food-delivery-api/authz"
	"food-delivery-api/handlers"
	"food-delivery-api/metrics"
	"food-delivery-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

type Options struct {
	Registry    *authz.Registry
	Audit       authz.AuditSink
	Tokens      *middleware.TokenIssuer
	AuthLimiter *middleware.RateLimiter
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Log         logrus.FieldLogger
}

// NewRouter assembles the engine. Every request, including ones that match
// no route, passes through Authorize; a route without a rule is an error.
func NewRouter(h *handlers.Handler, opts Options) (*gin.Engine, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestLogger(opts.Log),
		opts.Metrics.Middleware(),
		middleware.CORS(),
		middleware.Authenticate(opts.Tokens, opts.Log),
		middleware.Authorize(authz.NewEvaluator(opts.Registry, opts.Audit), opts.Log),
		middleware.Preflight(),
	)

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	SetupRoutes(r, h, opts.AuthLimiter.Middleware(opts.Log), metrics.Handler(gatherer))

	if err := VerifyCoverage(r, opts.Registry); err != nil {
		return nil, err
	}
	return r, nil
}
