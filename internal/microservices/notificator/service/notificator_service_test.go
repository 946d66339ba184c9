package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-pick-system/internal/common/logger"
	"robot-pick-system/internal/domain"
)

type ackRecorder struct {
	acks, nacks int
}

func (a *ackRecorder) Ack(uint64, bool) error        { a.acks++; return nil }
func (a *ackRecorder) Nack(uint64, bool, bool) error { a.nacks++; return nil }
func (a *ackRecorder) Reject(uint64, bool) error     { a.nacks++; return nil }

func delivery(t *testing.T, ack *ackRecorder, snap domain.Snapshot) amqp.Delivery {
	t.Helper()
	body, err := json.Marshal(domain.StatusMessage{Source: "control-service", Snapshot: snap, Published: time.Now()})
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, Body: body}
}

type fakeSubscriber struct {
	declared, bound string
	msgs            chan amqp.Delivery
}

func (f *fakeSubscriber) DeclareFanout(exchange string) error { f.declared = exchange; return nil }
func (f *fakeSubscriber) BindQueue(queue, _ string) error     { f.bound = queue; return nil }
func (f *fakeSubscriber) Consume(string, string, int) (<-chan amqp.Delivery, error) {
	return f.msgs, nil
}

func TestHandle_LogsStatusChangesAndAcks(t *testing.T) {
	var buf bytes.Buffer
	ns := NewNotificatorService(nil, "x", "q", logger.NewWithWriter("status-subscriber", &buf))
	ack := &ackRecorder{}

	ns.handle(delivery(t, ack, domain.Snapshot{Version: 1, RobotStatus: domain.RobotIdle}))
	ns.handle(delivery(t, ack, domain.Snapshot{Version: 2, RobotStatus: domain.RobotPicking, CurrentModel: "white"}))

	assert.Equal(t, 2, ack.acks)
	assert.Equal(t, uint64(2), ns.lastVersion)
	assert.Equal(t, domain.RobotPicking, ns.lastStatus)
	assert.Contains(t, buf.String(), `"action":"robot_status_changed"`)
	assert.Contains(t, buf.String(), `"previous_status":"idle"`)
}

func TestHandle_SkipsStaleVersions(t *testing.T) {
	ns := NewNotificatorService(nil, "x", "q", nil)
	ack := &ackRecorder{}

	ns.handle(delivery(t, ack, domain.Snapshot{Version: 5, RobotStatus: domain.RobotError}))
	ns.handle(delivery(t, ack, domain.Snapshot{Version: 4, RobotStatus: domain.RobotIdle}))

	assert.Equal(t, 2, ack.acks)
	assert.Equal(t, uint64(5), ns.lastVersion)
	assert.Equal(t, domain.RobotError, ns.lastStatus)
}

func TestHandle_InvalidBodyIsDropped(t *testing.T) {
	ns := NewNotificatorService(nil, "x", "q", nil)
	ack := &ackRecorder{}

	ns.handle(amqp.Delivery{Acknowledger: ack, Body: []byte("not json")})
	assert.Equal(t, 0, ack.acks)
	assert.Equal(t, 1, ack.nacks)
}

func TestNotify_ConsumesUntilClosed(t *testing.T) {
	sub := &fakeSubscriber{msgs: make(chan amqp.Delivery, 2)}
	ns := NewNotificatorService(sub, "robot_status_fanout", "robot_status.q", nil)
	ack := &ackRecorder{}

	sub.msgs <- delivery(t, ack, domain.Snapshot{Version: 1, RobotStatus: domain.RobotIdle})
	close(sub.msgs)

	err := ns.Notify(context.Background())
	assert.Error(t, err)
	assert.Equal(t, "robot_status_fanout", sub.declared)
	assert.Equal(t, "robot_status.q", sub.bound)
	assert.Equal(t, 1, ack.acks)
}

func TestNotify_StopsOnCancel(t *testing.T) {
	sub := &fakeSubscriber{msgs: make(chan amqp.Delivery)}
	ns := NewNotificatorService(sub, "x", "q", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, ns.Notify(ctx))
}
