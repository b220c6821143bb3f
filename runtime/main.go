package main

import (
	"github.com/alphabatem/common/context"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/kidtube-labs/kidtube_api/middleware"
	"github.com/kidtube-labs/kidtube_api/services"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Warn().Err(err).Msg("No .env file loaded")
	}

	ctx, err := context.NewCtx(
		&services.SqliteService{},
		&services.MonitoringService{},
		&services.ScheduleService{},
		&services.LimitsService{},
		&services.NotifyService{},
		&services.EmailService{},
		&services.ApprovalService{},
		&services.AccessService{},
		&services.DiscordService{},
		&middleware.AdminMiddleware{},

		&services.HttpService{},
	)
	if err != nil {
		log.Fatal().Err(err)
		return
	}

	err = ctx.Run()
	if err != nil {
		log.Fatal().Err(err)
		return
	}
}
