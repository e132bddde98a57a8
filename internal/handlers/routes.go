package handlers

import (
	"github.com/gin-gonic/gin"
)

// Router groups the handlers served under /api
type Router struct {
	Exchanges *ExchangeHandler
	Reviews   *ReviewHandler
	Skills    *SkillHandler
	Accounts  *AccountHandler
	Health    *HealthHandler
}

// RouteMiddleware holds the middleware chains applied per route group
type RouteMiddleware struct {
	Session   gin.HandlerFunc // authenticates the caller
	Internal  gin.HandlerFunc // guards /api/internal
	Limit     gin.HandlerFunc // general rate limit, runs after Session
	Writes    gin.HandlerFunc // stricter limit for state-changing requests
	BodyLimit gin.HandlerFunc
}

// Register mounts every route on api, which is expected to be the /api group
func (r *Router) Register(api *gin.RouterGroup, mw RouteMiddleware) {
	mw = mw.withDefaults()

	api.GET("/healthcheck", r.Health.Healthcheck)

	internal := api.Group("/internal", mw.Internal)
	internal.POST("/skills", mw.BodyLimit, r.Skills.CreateSkill)

	v1 := api.Group("/v1", mw.Session, mw.Limit)

	v1.GET("/skills", r.Skills.ListSkills)
	v1.GET("/skills/:skillId/mentors", r.Skills.FindMentors)
	v1.GET("/skills/:skillId/learners", r.Skills.FindLearners)

	me := v1.Group("/me")
	me.GET("/skills", r.Skills.ListMySkills)
	me.PUT("/skills/:skillId", mw.BodyLimit, r.Skills.UpsertMySkill)
	me.DELETE("/skills/:skillId", r.Skills.DeleteMySkill)
	me.GET("/account", r.Accounts.GetAccount)
	me.GET("/notifications", r.Accounts.ListNotifications)

	exchanges := v1.Group("/exchanges")
	exchanges.POST("", mw.Writes, mw.BodyLimit, r.Exchanges.Initiate)
	exchanges.GET("", r.Exchanges.List)
	exchanges.GET("/upcoming", r.Exchanges.Upcoming)
	exchanges.GET("/:id", r.Exchanges.Get)
	exchanges.POST("/:id/accept", mw.Writes, r.Exchanges.Accept)
	exchanges.POST("/:id/reject", mw.Writes, r.Exchanges.Reject)
	exchanges.POST("/:id/cancel", mw.Writes, r.Exchanges.Cancel)
	exchanges.POST("/:id/complete", mw.Writes, r.Exchanges.Complete)
	exchanges.POST("/:id/reviews", mw.Writes, mw.BodyLimit, r.Reviews.SubmitReview)
}

func (mw RouteMiddleware) withDefaults() RouteMiddleware {
	next := func(c *gin.Context) { c.Next() }
	for _, h := range []*gin.HandlerFunc{&mw.Session, &mw.Internal, &mw.Limit, &mw.Writes, &mw.BodyLimit} {
		if *h == nil {
			*h = next
		}
	}
	return mw
}
