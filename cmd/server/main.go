package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/stgiuliani/roster-engine/internal/config"
	"github.com/stgiuliani/roster-engine/internal/database"
	"github.com/stgiuliani/roster-engine/internal/handler"
	"github.com/stgiuliani/roster-engine/internal/queue"
	"github.com/stgiuliani/roster-engine/internal/repository"
	"github.com/stgiuliani/roster-engine/internal/router"
	"github.com/stgiuliani/roster-engine/internal/scheduler"
	"github.com/stgiuliani/roster-engine/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; availability caching and rate limiting disabled")
	}

	// Repositories.
	members := repository.NewMemberRepo(db)
	roles := repository.NewRoleRepo(db)
	family := repository.NewFamilyRepo(db)
	availRepo := repository.NewAvailabilityRepo(db)
	rosterStore := repository.NewRosterStore(db)
	exceptionStore := repository.NewExceptionStore(db)

	// Scheduling engine.
	notifier := service.NewQueueNotifier()
	availability := service.NewCachedAvailability(availRepo, rdb)
	validator := scheduler.NewValidator()
	rosterMgr := scheduler.NewRosterManager(rosterStore, validator)
	scorer := scheduler.NewScorer(rosterStore)
	generator := scheduler.NewGenerator(availability, rosterStore, scorer, rosterMgr, notifier)
	exceptions := scheduler.NewExceptionManager(exceptionStore, notifier)

	// Background notification consumer.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, members), cfg.JWTSecret)
	router.RegisterAPI(e, cfg.JWTSecret, rdb, config.LoadRateLimitConfig(),
		handler.NewTeamHandler(members, roles, family),
		handler.NewRosterHandler(rosterMgr, rosterStore, availability),
		handler.NewScheduleHandler(generator),
		handler.NewExceptionHandler(exceptions, availability),
		handler.NewAvailabilityHandler(availRepo, availability),
	)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
