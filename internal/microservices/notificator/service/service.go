package service

import "robot-pick-system/internal/common/logger"

type Service struct {
	NotificatorService *NotificatorService
}

func New(rmq subscriber, exchange, queue string, lg *logger.Logger) *Service {
	return &Service{NotificatorService: NewNotificatorService(rmq, exchange, queue, lg)}
}
