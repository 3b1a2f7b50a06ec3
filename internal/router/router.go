package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/stgiuliani/roster-engine/internal/config"
	"github.com/stgiuliani/roster-engine/internal/handler"
	"github.com/stgiuliani/roster-engine/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication routes.  Unauthenticated
// operations live under /v1/auth; /v1/me requires a valid token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterAPI registers all protected scheduling routes under /v1.
// Every route requires a valid access token; mutating team and roster
// operations additionally require the ADMIN role.  The rate limiter is
// applied to the whole group and degrades to a no-op when rdb is nil.
func RegisterAPI(e *echo.Echo, jwtSecret string, rdb *redis.Client, rl config.RateLimitConfig,
	team *handler.TeamHandler, roster *handler.RosterHandler, schedule *handler.ScheduleHandler,
	exception *handler.ExceptionHandler, availability *handler.AvailabilityHandler) {

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RateLimit(rdb, rl))

	admin := middleware.RequireRole("ADMIN")

	// Team management.
	v1.GET("/members/search", team.SearchMembers)
	v1.GET("/members/:id", team.GetMember)
	v1.PATCH("/members/:id", team.UpdateMember, admin)
	v1.GET("/members/:id/roles", team.MemberRoles)
	v1.POST("/members/:id/roles", team.AssignRole, admin)
	v1.DELETE("/members/:id/roles/:role_id", team.RemoveRole, admin)
	v1.GET("/members/:id/family", team.FamilyMembers)
	v1.PUT("/members/:id/preferences", team.SetPreference)
	v1.POST("/family", team.LinkFamily, admin)
	v1.GET("/roles", team.ListRoles)
	v1.GET("/team/stats", team.Stats)

	// Roster operations.
	v1.POST("/rosters", roster.Create, admin)
	v1.POST("/rosters/validate", roster.Validate, admin)
	v1.GET("/rosters", roster.Get)
	v1.PATCH("/assignments/:id/status", roster.UpdateStatus)
	v1.GET("/roles/:role_id/available", roster.AvailableMembers, admin)

	// Automatic schedule generation.
	v1.POST("/schedule/generate", schedule.Generate, admin)

	// Self-service availability.
	v1.PUT("/availability", availability.Set)
	v1.GET("/availability", availability.List)

	// Overrides, substitutions and blockouts.
	v1.POST("/overrides", exception.CreateOverride, admin)
	v1.GET("/overrides", exception.ListOverrides, admin)
	v1.POST("/substitutions", exception.Substitute, admin)
	v1.GET("/members/:id/substitutions", exception.SubstitutionHistory)
	v1.POST("/blockouts", exception.RecordBlockout)
	v1.GET("/blockouts", exception.ListBlockouts)
}
