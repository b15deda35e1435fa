package main

import (
	"log"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"github.com/KumudBhatt/Code-Nexus/app"
	"github.com/KumudBhatt/Code-Nexus/internal/config"
	"github.com/KumudBhatt/Code-Nexus/internal/execution"
	"github.com/KumudBhatt/Code-Nexus/internal/handlers"
	"github.com/KumudBhatt/Code-Nexus/internal/security"
	"github.com/KumudBhatt/Code-Nexus/internal/services"
	_ "github.com/KumudBhatt/Code-Nexus/pb_migrations"
	"github.com/KumudBhatt/Code-Nexus/utils"
)

func main() {
	pb := pocketbase.New()

	cfg := utils.LoadConfig()
	pb.Store().Set("cfg", cfg)

	metrics := services.NewMetrics()
	registry := services.NewRegistry(metrics)
	hub := services.NewHub(registry, metrics)
	go hub.Run()

	stager, err := execution.NewStager(cfg.StagingDir)
	if err != nil {
		log.Fatal(err)
	}
	pipeline := execution.NewPipeline(stager, execution.DefaultToolchains(), cfg.ExecTimeout, cfg.MaxConcurrentRuns, metrics)

	wsHandler := handlers.NewWSHandler(hub, security.NewOriginValidator(cfg.AllowedOrigins))
	runHandler := handlers.NewRunHandler(pipeline)
	metricsHandler := handlers.NewMetricsHandler(metrics, cfg.MetricsToken)

	submissionLimiter := security.NewIPRateLimiter(config.SubmissionWindow, 1)
	authLimiter := security.NewIPRateLimiter(config.AuthWindow/config.AuthMaxBurst, config.AuthMaxBurst)

	pb.OnServe().BindFunc(func(se *core.ServeEvent) error {
		se.Router.Bind(utils.AuthCookieMiddleware())
		se.Router.Bind(utils.AuthThrottle(authLimiter, cfg.TrustProxy))

		se.Router.GET("/ws", wsHandler.HandleWebSocket)
		se.Router.GET("/health", handlers.Health)
		se.Router.GET("/metrics", metricsHandler.Handle)
		se.Router.POST("/api/v1/rooms", handlers.CreateRoom)

		app.RegisterProjects(se, runHandler, utils.SubmissionThrottle(submissionLimiter, cfg.TrustProxy, metrics))

		return se.Next()
	})

	if err := pb.Start(); err != nil {
		log.Fatal(err)
	}
}
