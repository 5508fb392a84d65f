package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	bufferSize     = 256
	dialTimeout    = 3 * time.Second
	publishTimeout = 5 * time.Second
	minBackoff     = time.Second
	maxBackoff     = 30 * time.Second
)

// AMQPPublisher sends events as persistent JSON messages to a durable queue
// through the default exchange. Publish only enqueues; a single worker owns
// the connection, dials lazily and waits out a growing backoff after a
// failed dial. Events arriving while the broker is unreachable or the
// buffer is full are dropped and logged.
type AMQPPublisher struct {
	url         string
	queue       string
	log         *zap.Logger
	dialTimeout time.Duration

	events    chan TicketEvent
	stop      chan struct{}
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once

	// owned by the worker
	conn    *amqp.Connection
	ch      *amqp.Channel
	backoff time.Duration
	retryAt time.Time
}

// NewAMQPPublisher returns a publisher for url. Nothing is dialed until the
// first Publish.
func NewAMQPPublisher(url, queue string, log *zap.Logger) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{
		url:         url,
		queue:       queue,
		log:         log,
		dialTimeout: dialTimeout,
		events:      make(chan TicketEvent, bufferSize),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
}

// Publish implements Publisher. It never waits on the broker, so the
// request context is not needed for delivery.
func (p *AMQPPublisher) Publish(_ context.Context, ev TicketEvent) {
	select {
	case <-p.stop:
		return
	default:
	}
	p.startOnce.Do(func() { go p.run() })

	select {
	case p.events <- ev:
	default:
		p.drop(ev, "event buffer full", nil)
	}
}

func (p *AMQPPublisher) drop(ev TicketEvent, msg string, err error) {
	p.log.Warn(msg,
		zap.String("type", string(ev.Type)), zap.Int64("ticket_id", ev.TicketID), zap.Error(err))
}

func (p *AMQPPublisher) run() {
	defer close(p.done)
	for {
		select {
		case <-p.stop:
			p.reset()
			return
		case ev := <-p.events:
			p.deliver(ev)
		}
	}
}

func (p *AMQPPublisher) deliver(ev TicketEvent) {
	body, err := json.Marshal(ev)
	if err != nil {
		p.drop(ev, "event marshal failed", err)
		return
	}
	ch, err := p.channel()
	if err != nil {
		p.log.Warn("event broker unavailable",
			zap.String("type", string(ev.Type)), zap.Int64("ticket_id", ev.TicketID),
			zap.Duration("retry_in", time.Until(p.retryAt)), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	err = ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(ev.Type),
		Body:         body,
	})
	if err != nil {
		p.drop(ev, "event publish failed", err)
		p.reset()
	}
}

type errBackoff struct{}

func (errBackoff) Error() string { return "broker reconnect backing off" }

// channel returns an open channel, dialing and declaring the queue if needed.
// Inside the backoff window it fails without dialing.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.reset()
	if time.Now().Before(p.retryAt) {
		return nil, errBackoff{}
	}

	ch, err := p.dial()
	if err != nil {
		switch {
		case p.backoff == 0:
			p.backoff = minBackoff
		case p.backoff < maxBackoff:
			p.backoff = min(2*p.backoff, maxBackoff)
		}
		p.retryAt = time.Now().Add(p.backoff)
		return nil, err
	}
	p.backoff, p.retryAt = 0, time.Time{}
	return ch, nil
}

func (p *AMQPPublisher) dial() (*amqp.Channel, error) {
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

// Close stops the worker and releases the broker connection. Events still
// buffered are dropped.
func (p *AMQPPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.startOnce.Do(func() { close(p.done) })
		close(p.stop)
		<-p.done
	})
	return nil
}
