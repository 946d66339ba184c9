package notificator

import (
	"context"

	"robot-pick-system/internal/common/config"
	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/connections/rabbitmq"
	"robot-pick-system/internal/microservices/notificator/service"
)

// Start runs the status subscriber until ctx is cancelled.
func Start(ctx context.Context, cfg config.MQ) error {
	rmq, err := rabbitmq.Dial(cfg)
	if err != nil {
		return err
	}
	defer rmq.Close()

	svc := service.New(rmq, cfg.Exchange, cfg.Queue, logger.New("status-subscriber"))
	return svc.NotificatorService.Notify(ctx)
}
