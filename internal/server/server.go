package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/summitgrid/corebank/internal/adjustment"
	adjustmentdomain "github.com/summitgrid/corebank/internal/adjustment/domain"
	"github.com/summitgrid/corebank/internal/alert"
	alertdomain "github.com/summitgrid/corebank/internal/alert/domain"
	"github.com/summitgrid/corebank/internal/allocation"
	allocationdomain "github.com/summitgrid/corebank/internal/allocation/domain"
	"github.com/summitgrid/corebank/internal/balance"
	balancedomain "github.com/summitgrid/corebank/internal/balance/domain"
	"github.com/summitgrid/corebank/internal/cache"
	"github.com/summitgrid/corebank/internal/centermetrics"
	"github.com/summitgrid/corebank/internal/config"
	"github.com/summitgrid/corebank/internal/ledger"
	"github.com/summitgrid/corebank/internal/observability"
	obsmiddleware "github.com/summitgrid/corebank/internal/observability/logger"
	obsmetrics "github.com/summitgrid/corebank/internal/observability/metrics"
	obstracing "github.com/summitgrid/corebank/internal/observability/tracing"
	"github.com/summitgrid/corebank/internal/ratelimit"
	"github.com/summitgrid/corebank/internal/registry"
	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
	"github.com/summitgrid/corebank/internal/usage"
	usagedomain "github.com/summitgrid/corebank/internal/usage/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Module wires the full query surface: every domain service plus the
// gin engine and the HTTP listener. Binaries that need a thinner slice
// (see apps/api) compose the pieces themselves.
var Module = fx.Module("http.server",
	centermetrics.Module,
	fx.Provide(registerGin),
	cache.Module,
	registry.Module,
	allocation.Module,
	ledger.Module,
	adjustment.Module,
	usage.Module,
	balance.Module,
	alert.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(registerRoutes),
	fx.Invoke(RunHTTP),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

// RunHTTP binds the engine to the configured address and ties the
// listener to the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	registrySvc   registrydomain.Service
	allocationSvc allocationdomain.Service
	adjustmentSvc adjustmentdomain.Service
	usageSvc      usagedomain.Service
	balanceSvc    balancedomain.Service
	alertSvc      alertdomain.Service

	obsMetrics   *obsmetrics.Metrics
	queryLimiter *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	RegistrySvc   registrydomain.Service
	AllocationSvc allocationdomain.Service
	AdjustmentSvc adjustmentdomain.Service
	UsageSvc      usagedomain.Service
	BalanceSvc    balancedomain.Service
	AlertSvc      alertdomain.Service

	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
	QueryLimiter *ratelimit.Limiter  `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		registrySvc:   p.RegistrySvc,
		allocationSvc: p.AllocationSvc,
		adjustmentSvc: p.AdjustmentSvc,
		usageSvc:      p.UsageSvc,
		balanceSvc:    p.BalanceSvc,
		alertSvc:      p.AlertSvc,
		obsMetrics:    p.ObsMetrics,
		queryLimiter:  p.QueryLimiter,
	}
}

func registerRoutes(s *Server) {
	s.RegisterAPIRoutes()
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterAPIRoutes() {
	api := s.engine.Group("/api/v1")

	// -------- Projects --------
	api.GET("/projects", s.ListProjects)
	api.POST("/projects", s.CreateProject)
	api.GET("/projects/:id", s.GetProjectByID)

	// -------- Resources --------
	api.GET("/resources", s.ListResources)
	api.POST("/resources", s.CreateResource)

	// -------- Accounts --------
	api.GET("/accounts", s.ListAccounts)
	api.POST("/accounts", s.CreateAccount)
	api.GET("/accounts/:account_id", s.GetAccountByID)
	api.POST("/accounts/:account_id/deactivate", s.DeactivateAccount)

	// -------- Usage queries --------
	// The hot dashboard paths sit behind the shared token bucket.
	api.GET("/accounts/:account_id/usage", s.QueryRateLimit(surfaceUsage), s.GetAccountUsage)
	api.GET("/accounts/:account_id/trend", s.QueryRateLimit(surfaceTrend), s.GetAccountUsageTrend)

	// -------- Allocations --------
	api.GET("/allocations", s.ListAllocations)
	api.POST("/allocations", s.CreateAllocation)
	api.GET("/allocations/:id", s.GetAllocationByID)
	api.GET("/allocations/:id/balance", s.QueryRateLimit(surfaceBalance), s.GetAllocationBalance)
	api.GET("/allocations/:id/rollup", s.QueryRateLimit(surfaceBalance), s.GetAllocationRollup)

	// -------- Adjustments --------
	api.GET("/adjustments", s.ListAdjustments)
	api.POST("/adjustments", s.CreateAdjustment)

	// -------- Alerts --------
	api.GET("/alerts", s.ListAllocationAlerts)
}
