package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"coffee-shop/internal/config"
	"coffee-shop/internal/metrics"
	"coffee-shop/internal/model"
	"coffee-shop/internal/repository/mocks"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testOrder() *model.Order {
	cart := model.NewCart(uuid.New())
	cart.Items = []model.CartItem{
		{OptionID: 7, ProductName: "Ethiopia Guji", OptionName: "250g", Quantity: 2, PriceSnapshot: decimal.RequireFromString("9.90")},
	}
	return model.NewOrderFromCart(cart, nil)
}

func TestRecorder_RecordOrder(t *testing.T) {
	ctx := context.Background()
	outbox := new(mocks.MockOutboxRepository)
	tx := mocks.NewTx()
	order := testOrder()

	var stored *model.OutboxEvent
	outbox.On("Insert", ctx, tx, mock.AnythingOfType("*model.OutboxEvent")).
		Run(func(args mock.Arguments) { stored = args.Get(2).(*model.OutboxEvent) }).
		Return(nil)

	err := NewRecorder(outbox, zerolog.Nop()).RecordOrder(ctx, tx, model.EventOrderCreated, order)

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, AggregateOrder, stored.AggregateType)
	assert.Equal(t, order.ID.String(), stored.AggregateID)
	assert.Equal(t, model.EventOrderCreated, stored.EventType)

	var payload OrderPayload
	require.NoError(t, json.Unmarshal(stored.Payload, &payload))
	assert.Equal(t, order.ID, payload.OrderID)
	assert.Equal(t, model.OrderPending, payload.Status)
	assert.Equal(t, "25.79", payload.TotalAmount.StringFixed(2))
	require.Len(t, payload.Items, 1)
	assert.Equal(t, 2, payload.Items[0].Quantity)
}

func TestRecorder_RecordMemberRegistered(t *testing.T) {
	ctx := context.Background()
	outbox := new(mocks.MockOutboxRepository)
	member := &model.Member{ID: uuid.New(), Email: "ada@example.com", FirstName: "Ada"}

	outbox.On("Insert", ctx, mock.Anything, mock.MatchedBy(func(e *model.OutboxEvent) bool {
		var p MemberPayload
		_ = json.Unmarshal(e.Payload, &p)
		return e.EventType == model.EventMemberRegistered &&
			e.AggregateType == AggregateMember &&
			p.Email == "ada@example.com" && p.WelcomeCode == "WELCOME-1234ABCD"
	})).Return(nil)

	err := NewRecorder(outbox, zerolog.Nop()).RecordMemberRegistered(ctx, mocks.NewTx(), member, "WELCOME-1234ABCD")

	require.NoError(t, err)
	outbox.AssertExpectations(t)
}

func TestRecorder_InsertError(t *testing.T) {
	ctx := context.Background()
	outbox := new(mocks.MockOutboxRepository)
	outbox.On("Insert", ctx, mock.Anything, mock.Anything).Return(errors.New("db down"))

	err := NewRecorder(outbox, zerolog.Nop()).RecordOrder(ctx, mocks.NewTx(), model.EventOrderPaid, testOrder())

	assert.Error(t, err)
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func testEvent(eventType string) model.OutboxEvent {
	return model.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: AggregateOrder,
		AggregateID:   uuid.NewString(),
		EventType:     eventType,
		Payload:       json.RawMessage(`{"status":"PAID"}`),
		CreatedAt:     time.Now().UTC(),
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newKafkaPublisher(w, zerolog.Nop())
	event := testEvent(model.EventOrderPaid)

	require.NoError(t, p.Publish(context.Background(), event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, event.AggregateID, string(msg.Key))
	assert.JSONEq(t, `{"status":"PAID"}`, string(msg.Value))

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, model.EventOrderPaid, headers["event-type"])
	assert.Equal(t, event.ID.String(), headers["event-id"])

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	p := newKafkaPublisher(&fakeWriter{err: errors.New("leader not available")}, zerolog.Nop())

	err := p.Publish(context.Background(), testEvent(model.EventOrderCreated))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "order.created")
}

type fakeChannel struct {
	exchange   string
	kind       string
	confirmOn  bool
	declareErr error
	published  []amqp.Publishing
	keys       []string
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.exchange, f.kind = name, kind
	return f.declareErr
}

func (f *fakeChannel) Confirm(noWait bool) error {
	f.confirmOn = true
	return nil
}

func (f *fakeChannel) PublishWithDeferredConfirmWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) (*amqp.DeferredConfirmation, error) {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil, nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func TestRabbitPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newRabbitPublisher(ch, "coffee-shop.events", zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, "coffee-shop.events", ch.exchange)
	assert.Equal(t, "topic", ch.kind)
	assert.True(t, ch.confirmOn)

	event := testEvent(model.EventOrderPaymentFailed)
	require.NoError(t, p.Publish(context.Background(), event))

	require.Len(t, ch.published, 1)
	assert.Equal(t, model.EventOrderPaymentFailed, ch.keys[0])
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, event.ID.String(), ch.published[0].MessageId)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestRabbitPublisher_DeclareError(t *testing.T) {
	_, err := newRabbitPublisher(&fakeChannel{declareErr: errors.New("access refused")}, "x", zerolog.Nop())

	assert.Error(t, err)
}

func TestNewPublisher_None(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{Broker: config.BrokerNone}, zerolog.Nop())

	require.NoError(t, err)
	assert.IsType(t, &LogPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), testEvent(model.EventOrderPaid)))
}

func TestNewPublisher_Kafka(t *testing.T) {
	p, err := NewPublisher(config.EventsConfig{
		Broker:       config.BrokerKafka,
		KafkaBrokers: "localhost:9092",
		KafkaTopic:   "events",
	}, zerolog.Nop())

	require.NoError(t, err)
	assert.IsType(t, &KafkaPublisher{}, p)
	assert.NoError(t, p.Close())
}

type recordingPublisher struct {
	published []string
	failOn    string
}

func (p *recordingPublisher) Publish(ctx context.Context, event model.OutboxEvent) error {
	if event.EventType == p.failOn {
		return errors.New("broker down")
	}
	p.published = append(p.published, event.EventType)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func TestRelay_RelayOnce(t *testing.T) {
	ctx := context.Background()
	outbox := new(mocks.MockOutboxRepository)
	pub := &recordingPublisher{}
	m := metrics.New()

	batch := []model.OutboxEvent{testEvent(model.EventOrderCreated), testEvent(model.EventOrderPaid)}
	outbox.On("FetchPending", ctx, 50).Return(batch, nil)
	outbox.On("MarkSent", ctx, batch[0].ID).Return(nil)
	outbox.On("MarkSent", ctx, batch[1].ID).Return(nil)

	sent, err := NewRelay(outbox, pub, m, time.Second, 50, zerolog.Nop()).RelayOnce(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, []string{model.EventOrderCreated, model.EventOrderPaid}, pub.published)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Outbox.WithLabelValues(model.EventOrderPaid, "sent")))
	outbox.AssertExpectations(t)
}

func TestRelay_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	outbox := new(mocks.MockOutboxRepository)
	pub := &recordingPublisher{failOn: model.EventOrderPaid}

	batch := []model.OutboxEvent{
		testEvent(model.EventOrderCreated),
		testEvent(model.EventOrderPaid),
		testEvent(model.EventMemberRegistered),
	}
	outbox.On("FetchPending", ctx, 10).Return(batch, nil)
	outbox.On("MarkSent", ctx, batch[0].ID).Return(nil)

	sent, err := NewRelay(outbox, pub, nil, time.Second, 10, zerolog.Nop()).RelayOnce(ctx)

	require.Error(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []string{model.EventOrderCreated}, pub.published)
	outbox.AssertNotCalled(t, "MarkSent", ctx, batch[1].ID)
	outbox.AssertNotCalled(t, "MarkSent", ctx, batch[2].ID)
}

func TestRelay_RunStopsOnCancel(t *testing.T) {
	outbox := new(mocks.MockOutboxRepository)
	outbox.On("FetchPending", mock.Anything, 5).Return([]model.OutboxEvent{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewRelay(outbox, &recordingPublisher{}, nil, 10*time.Millisecond, 5, zerolog.Nop()).Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
	outbox.AssertCalled(t, "FetchPending", mock.Anything, 5)
}
