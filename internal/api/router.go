package api

import (
	"coachdesk/internal/auth"
	"coachdesk/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func SetupRouter(cfg *config.Config, rdb *redis.Client) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // e.g. "/coachdesk" or any custom path, always starts with '/'

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))

		// Setup: only if no users
		group.POST("/setup", SetupHandler())

		// Auth
		group.POST("/auth/login", LoginHandler(cfg, rdb))
		group.POST("/auth/logout", auth.AuthMiddleware(cfg, rdb, false), LogoutHandler(rdb))
		group.GET("/auth/me", auth.AuthMiddleware(cfg, rdb, false), MeHandler())

		// Admin: users
		group.GET("/users", auth.AuthMiddleware(cfg, rdb, true), ListUsersHandler())
		group.POST("/users", auth.AuthMiddleware(cfg, rdb, true), CreateUserHandler())

		// User self-service
		group.GET("/users/me", auth.AuthMiddleware(cfg, rdb, false), GetMeHandler())
		group.PUT("/users/me", auth.AuthMiddleware(cfg, rdb, false), UpdateMeHandler())
		group.DELETE("/users/me", auth.AuthMiddleware(cfg, rdb, false), DeleteMeHandler())

		// Admin: user by id
		group.GET("/users/:id", auth.AuthMiddleware(cfg, rdb, true), GetUserByIdHandler())
		group.PUT("/users/:id", auth.AuthMiddleware(cfg, rdb, true), UpdateUserByIdHandler())
		group.DELETE("/users/:id", auth.AuthMiddleware(cfg, rdb, true), DeleteUserByIdHandler())

		// --- Programs and stages ---
		group.GET("/programs", auth.AuthMiddleware(cfg, rdb, false), ListProgramsHandler())
		group.POST("/programs", auth.AuthMiddleware(cfg, rdb, true), CreateProgramHandler())
		group.GET("/programs/:id", auth.AuthMiddleware(cfg, rdb, false), GetProgramHandler())
		group.PUT("/programs/:id", auth.AuthMiddleware(cfg, rdb, true), UpdateProgramHandler())
		group.DELETE("/programs/:id", auth.AuthMiddleware(cfg, rdb, true), DeleteProgramHandler())
		group.POST("/programs/:id/stages", auth.AuthMiddleware(cfg, rdb, true), CreateStageHandler())
		group.DELETE("/stages/:id", auth.AuthMiddleware(cfg, rdb, true), DeleteStageHandler())

		// --- Stage content (resolver + write path) ---
		group.GET("/stages/:id/content", auth.AuthMiddleware(cfg, rdb, false), ResolveStageContentHandler())
		group.POST("/stages/:id/content", auth.AuthMiddleware(cfg, rdb, true), CreateContentHandler())
		group.PUT("/content/:id", auth.AuthMiddleware(cfg, rdb, true), UpdateContentHandler())
		group.DELETE("/content/:id", auth.AuthMiddleware(cfg, rdb, true), DeleteContentHandler())

		// --- Activities: rubric/deliverable admin + chat turns ---
		group.GET("/activities/:id/deliverables", auth.AuthMiddleware(cfg, rdb, false), ListDeliverablesHandler())
		group.POST("/activities/:id/deliverables", auth.AuthMiddleware(cfg, rdb, true), CreateDeliverableHandler())
		group.GET("/activities/:id/rubric", auth.AuthMiddleware(cfg, rdb, false), ListRubricHandler())
		group.POST("/activities/:id/rubric", auth.AuthMiddleware(cfg, rdb, true), CreateCriterionHandler())
		group.POST("/activities/:id/turns", auth.AuthMiddleware(cfg, rdb, false), ActivityTurnHandler(cfg))
		group.GET("/activities/:id/completion", auth.AuthMiddleware(cfg, rdb, false), ActivityCompletionHandler())

		// --- Online users count ---
		group.GET("/users/online", OnlineUserCountHandler(rdb))
	}
	return r
}
