package service

import (
	"time"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/microservices/control/gateway"
	"robot-pick-system/internal/microservices/control/repository"
)

type Service struct {
	RobotService RobotServiceInterface
}

func New(repo *repository.Repository, gw gateway.Gateway, bc *Broadcaster, lg *logger.Logger, pickDuration time.Duration, pickFPS int) *Service {
	return &Service{
		RobotService: NewRobotService(repo, gw, bc, lg, pickDuration, pickFPS),
	}
}
