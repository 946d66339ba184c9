package rabbitmq

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"robot-pick-system/internal/common/config"
)

func TestURL(t *testing.T) {
	assert.Equal(t, "amqp://guest:guest@mq:5672//",
		URL(config.MQ{Host: "mq", Port: 5672, User: "guest", Pass: "guest"}))
	assert.Equal(t, "amqp://u:p@mq:5672/robots",
		URL(config.MQ{Host: "mq", Port: 5672, User: "u", Pass: "p", VHost: "robots"}))
}

func TestPing_NilConnection(t *testing.T) {
	assert.Error(t, (&Client{}).Ping())
}

func TestAwaitConfirm_SkipsLateConfirmations(t *testing.T) {
	acks := make(chan amqp.Confirmation, 4)
	// tag 1 timed out earlier; its ack arrives while tag 2 waits
	acks <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
	acks <- amqp.Confirmation{DeliveryTag: 2, Ack: false}

	err := awaitConfirm(context.Background(), acks, 2)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NACK")
	assert.Empty(t, acks)
}

func TestAwaitConfirm_Ack(t *testing.T) {
	acks := make(chan amqp.Confirmation, 1)
	acks <- amqp.Confirmation{DeliveryTag: 7, Ack: true}
	assert.NoError(t, awaitConfirm(context.Background(), acks, 7))
}

func TestAwaitConfirm_ContextExpires(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := awaitConfirm(ctx, make(chan amqp.Confirmation), 1)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestAwaitConfirm_ChannelClosed(t *testing.T) {
	acks := make(chan amqp.Confirmation)
	close(acks)
	assert.Error(t, awaitConfirm(context.Background(), acks, 1))
}
