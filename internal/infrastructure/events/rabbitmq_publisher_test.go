package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Inventario-ledger/internal/application/ledger"
	"github.com/jhoicas/Inventario-ledger/internal/domain/entity"
	"github.com/jhoicas/Inventario-ledger/internal/infrastructure/events"
)

type fakeChannel struct {
	exchanges []string
	confirm   bool
	confirms  chan amqp.Confirmation
	published []amqp.Publishing
	keys      []string
	ack       bool
	tag       uint64
	closed    bool
	silent    bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.exchanges = append(f.exchanges, name+":"+kind)
	return nil
}

func (f *fakeChannel) Confirm(bool) error {
	f.confirm = true
	return nil
}

func (f *fakeChannel) NotifyPublish(c chan amqp.Confirmation) chan amqp.Confirmation {
	f.confirms = c
	return c
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	f.tag++
	if f.silent {
		return nil
	}
	f.confirms <- amqp.Confirmation{DeliveryTag: f.tag, Ack: f.ack}
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func postedEvent() ledger.Event {
	loc := "loc-a"
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return ledger.Event{
		Type:       ledger.EventMovementsPosted,
		TenantID:   "t1",
		OccurredAt: at,
		Movements: []*entity.MovementEntry{{
			ID: "m1", Sequence: 7, TenantID: "t1", ItemID: "i1", SiteID: "s1", LocationID: &loc,
			Kind: entity.MovementReceipt, Bucket: entity.BucketOnHand, QuantityBase: decimal.RequireFromString("12.5"),
			ReferenceType: entity.RefAdjustment, ReferenceID: "r1", CreatedAt: at,
		}},
	}
}

func TestRabbitMQPublisher_DeclaraYPublicaJSON(t *testing.T) {
	ch := &fakeChannel{ack: true}
	p, err := events.NewRabbitMQPublisher(ch, "inventory")
	require.NoError(t, err)
	assert.Equal(t, []string{"inventory:topic"}, ch.exchanges)
	assert.True(t, ch.confirm)

	require.NoError(t, p.Publish(context.Background(), postedEvent()))
	require.Len(t, ch.published, 1)
	assert.Equal(t, ledger.EventMovementsPosted, ch.keys[0])
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, "t1", ch.published[0].Headers["tenant_id"])

	var body events.Message
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &body))
	require.Len(t, body.Movements, 1)
	assert.Equal(t, "RECEIPT", body.Movements[0].Kind)
	assert.Equal(t, "ON_HAND", body.Movements[0].Bucket)
	assert.True(t, body.Movements[0].QuantityBase.Equal(decimal.RequireFromString("12.5")))
}

func TestRabbitMQPublisher_NackEsError(t *testing.T) {
	ch := &fakeChannel{ack: false}
	p, err := events.NewRabbitMQPublisher(ch, "inventory")
	require.NoError(t, err)

	err = p.Publish(context.Background(), postedEvent())
	assert.ErrorIs(t, err, events.ErrPublishNacked)
}

func TestRabbitMQPublisher_ExchangeObligatorio(t *testing.T) {
	_, err := events.NewRabbitMQPublisher(&fakeChannel{}, "")
	assert.Error(t, err)
}

func TestRabbitMQPublisher_ConfirmacionTardiaInvalidaElCanal(t *testing.T) {
	ch := &fakeChannel{silent: true}
	p, err := events.NewRabbitMQPublisher(ch, "inventory", events.WithConfirmTimeout(20*time.Millisecond))
	require.NoError(t, err)

	err = p.Publish(context.Background(), postedEvent())
	require.ErrorIs(t, err, events.ErrConfirmTimeout)
	assert.True(t, ch.closed, "el canal se cierra al perder la confirmación")

	// la confirmación tardía no debe contarse como la del siguiente mensaje
	ch.confirms <- amqp.Confirmation{DeliveryTag: 1, Ack: true}
	ch.silent = false

	err = p.Publish(context.Background(), postedEvent())
	assert.ErrorIs(t, err, events.ErrChannelClosed)
	assert.Len(t, ch.published, 1, "no se publica sobre un canal invalidado")
}

func TestRabbitMQPublisher_CtxCanceladoInvalidaElCanal(t *testing.T) {
	ch := &fakeChannel{silent: true}
	p, err := events.NewRabbitMQPublisher(ch, "inventory")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Publish(ctx, postedEvent())
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, ch.closed)
	assert.ErrorIs(t, p.Publish(context.Background(), postedEvent()), events.ErrChannelClosed)
}
