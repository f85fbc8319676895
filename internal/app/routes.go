package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/coursekit/core/internal/middleware"
	"github.com/coursekit/core/internal/modules/auth/auth"
	"github.com/coursekit/core/internal/modules/catalog/course"
	"github.com/coursekit/core/internal/modules/catalog/enrollment"
	"github.com/coursekit/core/internal/modules/catalog/lesson"
	"github.com/coursekit/core/internal/modules/catalog/progress"
	"github.com/coursekit/core/internal/modules/community/comment"
	"github.com/coursekit/core/internal/modules/community/discussion"
	"github.com/coursekit/core/internal/modules/community/livesync"
	"github.com/coursekit/core/internal/modules/community/mention"
	"github.com/coursekit/core/internal/modules/community/notification"
	"github.com/coursekit/core/internal/modules/community/reaction"
	"github.com/coursekit/core/internal/modules/gateway"
	"github.com/coursekit/core/internal/modules/storage/media"
	"github.com/coursekit/core/internal/pkg/events"
	"github.com/coursekit/core/internal/pkg/mail"
	"github.com/coursekit/core/internal/pkg/pagination"
	pkgredis "github.com/coursekit/core/internal/pkg/redis"
	"github.com/coursekit/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)
	optionalAuthMW := middleware.OptionalAuth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "coursekit-core",
		"version": "1.0.0",
	}

	r.Use(middleware.RateLimit(rc.Raw()))

	// Shared infrastructure
	bus := events.NewRedisBus(rc)

	var mailer *mail.Sender
	if a.cfg.Mail.Enable {
		mailer = mail.New(mail.BuildMailConfig(a.cfg))
	}

	// Services
	notifySvc := notification.NewService(db, bus)
	mentionSvc := mention.NewService(db, notifySvc)
	reactionSvc := reaction.NewService(db, bus, notifySvc)
	enrollSvc := enrollment.NewService(db, mailer, a.cfg.SiteURL, a.logger)
	commentSvc := comment.NewService(db, bus, reactionSvc, mentionSvc, notifySvc, enrollSvc.RosterForLesson, a.logger.Named("comment"))
	discussionSvc := discussion.NewService(db, bus)
	courseSvc := course.NewService(db)
	lessonSvc := lesson.NewService(db)
	progressSvc := progress.NewService(db, bus)
	authSvc := auth.NewService(db)

	// Live sync: gateway rooms re-fetch through these on every change
	// event in their scope.
	sync := livesync.NewController(bus, a.hub, a.logger)
	sync.RegisterFetcher("lesson", func(ctx context.Context, scope string) (interface{}, error) {
		lessonID := strings.TrimPrefix(scope, "lesson:")
		tree, count, err := commentSvc.Thread(ctx, lessonID, "")
		if err != nil {
			return nil, err
		}
		return gin.H{"data": tree, "count": count}, nil
	})
	sync.RegisterFetcher("discussion", func(ctx context.Context, scope string) (interface{}, error) {
		courseID := strings.TrimPrefix(scope, "discussion:")
		views, _, err := discussionSvc.ListByCourse(ctx, courseID, pagination.Query{Page: 1, Size: pagination.DefaultSize})
		if err != nil {
			return nil, err
		}
		return gin.H{"data": views}, nil
	})
	sync.RegisterFetcher("notify", func(ctx context.Context, scope string) (interface{}, error) {
		userID := strings.TrimPrefix(scope, "notify:")
		rows, err := notifySvc.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		unread, err := notifySvc.UnreadCount(ctx, userID)
		if err != nil {
			return nil, err
		}
		return gin.H{"data": rows, "unread": unread}, nil
	})
	sync.RegisterFetcher("progress", func(ctx context.Context, scope string) (interface{}, error) {
		userID := strings.TrimPrefix(scope, "progress:")
		rows, err := progressSvc.ListForUser(ctx, userID)
		if err != nil {
			return nil, err
		}
		return gin.H{"data": rows}, nil
	})
	a.hub.SetWatcher(sync)

	// Root-level endpoints
	root := r.Group("")
	gateway.RegisterRoutes(root, a.hub)

	// Versioned API
	api := r.Group(apiPrefix)

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
	})

	auth.NewHandler(authSvc).RegisterRoutes(api, authMW)
	course.NewHandler(courseSvc).RegisterRoutes(api, authMW)
	lesson.NewHandler(lessonSvc).RegisterRoutes(api, authMW)
	progress.NewHandler(progressSvc).RegisterRoutes(api, authMW)
	enrollment.NewHandler(enrollSvc).RegisterRoutes(api, authMW)
	comment.NewHandler(commentSvc).RegisterRoutes(api, authMW, optionalAuthMW)
	reaction.NewHandler(reactionSvc).RegisterRoutes(api, authMW)
	notification.NewHandler(notifySvc).RegisterRoutes(api, authMW)
	discussion.NewHandler(discussionSvc).RegisterRoutes(api, authMW)

	mediaSvc := media.NewService(a.cfg.Storage, db, enrollSvc)
	media.NewHandler(mediaSvc).RegisterRoutes(api, authMW)
}
