package service

import (
	"context"
	"encoding/json"
	"errors"

	amqp "github.com/rabbitmq/amqp091-go"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/domain"
)

type subscriber interface {
	DeclareFanout(exchange string) error
	BindQueue(queue, exchange string) error
	Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error)
}

// NotificatorService follows the robot status fanout and logs every
// snapshot it has not seen yet.
type NotificatorService struct {
	rmq      subscriber
	exchange string
	queue    string
	lg       *logger.Logger

	lastVersion uint64
	lastStatus  domain.RobotStatus
}

func NewNotificatorService(rmq subscriber, exchange, queue string, lg *logger.Logger) *NotificatorService {
	if lg == nil {
		lg = logger.Nop()
	}
	return &NotificatorService{rmq: rmq, exchange: exchange, queue: queue, lg: lg}
}

// Notify consumes until ctx is done or the broker closes the channel.
func (ns *NotificatorService) Notify(ctx context.Context) error {
	if err := ns.rmq.DeclareFanout(ns.exchange); err != nil {
		return err
	}
	if err := ns.rmq.BindQueue(ns.queue, ns.exchange); err != nil {
		return err
	}
	msgs, err := ns.rmq.Consume(ns.queue, "notificator", 10)
	if err != nil {
		return err
	}
	ns.lg.Info("subscriber_ready", map[string]any{"exchange": ns.exchange, "queue": ns.queue})

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("status delivery channel closed")
			}
			ns.handle(d)
		}
	}
}

func (ns *NotificatorService) handle(d amqp.Delivery) {
	var msg domain.StatusMessage
	if err := json.Unmarshal(d.Body, &msg); err != nil {
		ns.lg.Warn("status_message_invalid", map[string]any{"error": err.Error(), "bytes": len(d.Body)})
		_ = d.Nack(false, false)
		return
	}

	snap := msg.Snapshot
	if snap.Version != 0 && snap.Version <= ns.lastVersion {
		ns.lg.Debug("status_message_stale", map[string]any{"version": snap.Version, "last": ns.lastVersion})
		_ = d.Ack(false)
		return
	}

	fields := map[string]any{
		"source":           msg.Source,
		"version":          snap.Version,
		"robot_status":     snap.RobotStatus,
		"current_model":    snap.CurrentModel,
		"current_order_id": snap.CurrentOrderID,
		"orders":           len(snap.Orders),
	}
	if snap.LastError != "" {
		fields["last_error"] = snap.LastError
	}
	if snap.RobotStatus != ns.lastStatus {
		fields["previous_status"] = ns.lastStatus
		ns.lg.Info("robot_status_changed", fields)
	} else {
		ns.lg.Debug("robot_status_update", fields)
	}

	ns.lastVersion = snap.Version
	ns.lastStatus = snap.RobotStatus
	_ = d.Ack(false)
}
