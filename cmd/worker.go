package cmd

import (
	"asterias/config"
	"asterias/services/backend"
	"asterias/services/tasks"
	"asterias/utils"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background task worker",
	Long:  "worker delivers confirmation and inquiry e-mail and expires abandoned checkout sessions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.AppConfig
		logger := utils.GetLogger()

		bundle, renderer, err := newViews()
		if err != nil {
			return err
		}
		// The service needs a queue even though expiry enqueues nothing.
		asynqClient := asynq.NewClient(redisOpt())
		defer asynqClient.Close()
		client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout, nil, logger)
		bookings, _, err := newBookingService(client, tasks.NewQueue(asynqClient), logger)
		if err != nil {
			return err
		}
		return newWorker(bookings, bundle, renderer, logger).Run()
	},
}
