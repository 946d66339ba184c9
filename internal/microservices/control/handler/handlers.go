package handler

import (
	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/microservices/control/service"
)

type Handler struct {
	OrderHandler  *OrderHandler
	RobotHandler  *RobotHandler
	StreamHandler *StreamHandler

	origins originSet
	lg      *logger.Logger
}

func New(s *service.Service, allowedOrigins []string, lg *logger.Logger) *Handler {
	if lg == nil {
		lg = logger.Nop()
	}
	origins := newOriginSet(allowedOrigins)
	return &Handler{
		OrderHandler:  NewOrderHandler(s.RobotService),
		RobotHandler:  NewRobotHandler(s.RobotService),
		StreamHandler: NewStreamHandler(s.RobotService, origins, lg),
		origins:       origins,
		lg:            lg,
	}
}
