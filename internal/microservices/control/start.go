package control

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"robot-pick-system/internal/common/config"
	"robot-pick-system/internal/common/httpx"
	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/connections/cache"
	"robot-pick-system/internal/connections/database"
	"robot-pick-system/internal/connections/rabbitmq"
	"robot-pick-system/internal/microservices/control/gateway"
	"robot-pick-system/internal/microservices/control/handler"
	"robot-pick-system/internal/microservices/control/repository"
	"robot-pick-system/internal/microservices/control/service"
)

const serviceName = "control-service"

// Run starts the control plane and blocks until ctx is cancelled. Postgres,
// RabbitMQ and Redis are optional; each is wired only when configured.
func Run(ctx context.Context, cfg config.App) error {
	lg := logger.New(serviceName)

	var closers []func()
	defer func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}()

	var journal repository.JournalInterface
	if cfg.Database.Enabled() {
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		closers = append(closers, pool.Close)
		pg := repository.NewPGJournal(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("journal schema: %w", err)
		}
		journal = pg
		lg.Info("journal_enabled", map[string]any{"host": cfg.Database.Host, "database": cfg.Database.Name})
	}

	bc := service.NewBroadcaster(cfg.Broadcast.QueueSize, cfg.Broadcast.SendTimeout, logger.New("broadcaster"))

	if cfg.Rabbit.Enabled() {
		rmq, err := rabbitmq.Dial(cfg.Rabbit)
		if err != nil {
			return err
		}
		closers = append(closers, rmq.Close)
		if err := rmq.DeclareFanout(cfg.Rabbit.Exchange); err != nil {
			return err
		}
		bc.AttachSink(service.NewAMQPSink(rmq, cfg.Rabbit.Exchange, serviceName))
		lg.Info("amqp_sink_attached", map[string]any{"exchange": cfg.Rabbit.Exchange})
	}

	if cfg.Redis.Enabled() {
		rdb, err := cache.Connect(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		closers = append(closers, func() { _ = rdb.Close() })
		bc.AttachSink(service.NewRedisSink(rdb, cfg.Redis.Key, cfg.Redis.Channel, cfg.Redis.TTL))
		lg.Info("redis_sink_attached", map[string]any{"key": cfg.Redis.Key, "channel": cfg.Redis.Channel})
	}

	gw := newGateway(cfg.Gateway)
	robot := service.NewRobotService(repository.New(journal), gw, bc, lg, cfg.Gateway.PickDuration(), cfg.Gateway.PickFPS)
	svc := &service.Service{RobotService: robot}
	h := handler.New(svc, cfg.Server.AllowedOrigins, logger.New("http"))

	srv := httpx.New(":"+strconv.Itoa(cfg.Server.Port), handler.Router(h),
		httpx.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.IdleTimeout))

	lg.Info("service_started", map[string]any{
		"port":           cfg.Server.Port,
		"mode":           gw.Mode(),
		"pick_duration":  cfg.Gateway.PickDuration().String(),
		"pick_fps":       cfg.Gateway.PickFPS,
		"journal":        journal != nil,
		"allowed_origin": cfg.Server.AllowedOrigins,
	})
	runErr := srv.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), srv.ShutdownTimeout)
	defer cancel()
	err := robot.Shutdown(shutdownCtx)
	lg.Info("service_stopped", nil)
	return errors.Join(runErr, err)
}

func newGateway(cfg config.Gateway) gateway.Gateway {
	lg := logger.New("gateway")
	if !cfg.UseRealRobot {
		return gateway.NewSimulated(cfg.SimulatedPickTime(), lg)
	}
	return gateway.NewRemote(cfg.InferenceURL, gateway.RobotConfig{
		Port: cfg.RobotPort,
		ID:   cfg.RobotID,
		Cameras: map[string]gateway.Camera{
			"front": {IndexOrPath: cfg.CameraFront, Width: 640, Height: 480, FPS: cfg.PickFPS},
			"wrist": {IndexOrPath: cfg.CameraWrist, Width: 640, Height: 480, FPS: cfg.PickFPS},
		},
	}, lg)
}
