package services

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/kidtube-labs/kidtube_api/middleware"
	"github.com/kidtube-labs/kidtube_api/services/handlers"
	"github.com/kidtube-labs/kidtube_api/shared"
)

type HttpService struct {
	context.DefaultService

	accessSvc   *AccessService
	limitsSvc   *LimitsService
	approvalSvc *ApprovalService
	discordSvc  *DiscordService
	adminMdw    *middleware.AdminMiddleware

	port   int
	server *fiber.App
}

const HTTP_SVC = "http_svc"

func (svc HttpService) Id() string {
	return HTTP_SVC
}

func (svc *HttpService) Configure(ctx *context.Context) error {
	if port := os.Getenv("HTTP_PORT"); port != "" {
		var err error
		if svc.port, err = strconv.Atoi(port); err != nil {
			return err
		}
	} else {
		svc.port = 2018
	}

	return svc.DefaultService.Configure(ctx)
}

func (svc *HttpService) Start() error {
	svc.accessSvc = svc.Service(ACCESS_SVC).(*AccessService)
	svc.limitsSvc = svc.Service(LIMITS_SVC).(*LimitsService)
	svc.approvalSvc = svc.Service(APPROVAL_SVC).(*ApprovalService)
	svc.discordSvc = svc.Service(DISCORD_SVC).(*DiscordService)
	svc.adminMdw = svc.Service(middleware.ADMIN_MIDDLEWARE_SVC).(*middleware.AdminMiddleware)

	app := fiber.New(fiber.Config{
		JSONEncoder:  shared.MarshalJSON,
		JSONDecoder:  shared.UnmarshalJSON,
		ErrorHandler: svc.handleError,
	})

	app.Use(recover.New())
	app.Use(MonitoringMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, X-Admin-Pin",
	}))

	svc.registerRoutes(app)

	svc.server = app
	return app.Listen(fmt.Sprintf(":%v", svc.port))
}

func (svc *HttpService) Shutdown() {
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *HttpService) registerRoutes(app *fiber.App) {
	accessHandler := handlers.NewAccessHandler(svc.accessSvc, svc.limitsSvc)
	playbackHandler := handlers.NewPlaybackHandler(svc.accessSvc)
	requestHandler := handlers.NewRequestHandler(svc.approvalSvc, svc.limitsSvc)
	discordHandler := handlers.NewDiscordHandler(svc.discordSvc)

	app.Get("/ping", svc.ping)
	app.Post("/discord/interactions", discordHandler.Interactions)

	v1 := app.Group("/api/v1")
	v1.Get("/ping", svc.ping)

	v1.Post("/access/check", accessHandler.CheckAccess)
	v1.Post("/playback/log", playbackHandler.Log)
	v1.Post("/playback/heartbeat", playbackHandler.Heartbeat)
	v1.Get("/kids/:id/remaining", accessHandler.Remaining)
	v1.Post("/requests", requestHandler.Create)

	admin := v1.Group("", svc.adminMdw.RequireAdminPin())
	admin.Post("/requests/:id/:action", requestHandler.Resolve)
	admin.Post("/kids/:id/bonus", requestHandler.GrantBonus)
}

// @Summary Ping
// @Description This endpoint checks the health of the service
// @Tags health
// @Accept  json
// @Produce json
// @Success 200 {object} shared.Response{data=string}
// @Router /ping [get]
func (svc *HttpService) ping(c *fiber.Ctx) error {
	c.Set("Cache-Control", "max-age=10")

	return shared.ResponseJSON(c, http.StatusOK, "Success", "pong")
}

func (svc *HttpService) handleError(c *fiber.Ctx, err error) error {
	if appErr, ok := shared.GetAppError(err); ok {
		if seconds, ok := appErr.RetryAfterSeconds(); ok {
			c.Set("Retry-After", strconv.Itoa(seconds))
		}
		return shared.ResponseJSON(c, appErr.StatusCode, appErr.Message, appErr.Data)
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		return shared.ResponseJSON(c, fiberErr.Code, fiberErr.Message, nil)
	}

	return shared.ResponseInternalError(c, err)
}
