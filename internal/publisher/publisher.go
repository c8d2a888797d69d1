package publisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/vaderpos/inventory-service/pkg/eventbus"
)

// envelope is the outbound wire form of a change event. Like the in-process
// event it carries only the identifier; consumers fetch current state from
// the API.
type envelope struct {
	EventType string `json:"eventType"`
	EntityID  int64  `json:"entityId"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher mirrors committed change events onto NATS subjects
// (<prefix>.product.changed, <prefix>.category.deleted, ...). It is an
// optional egress: the in-process broadcast path never depends on it.
type Publisher struct {
	nc            *nats.Conn
	subjectPrefix string
	sub           *eventbus.Subscription
	logger        *zap.Logger
}

// New subscribes to bus and returns a Publisher ready to Run.
func New(nc *nats.Conn, subjectPrefix string, bus *eventbus.Bus, logger *zap.Logger) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		nc:            nc,
		subjectPrefix: subjectPrefix,
		sub:           bus.Subscribe(256),
		logger:        logger,
	}
}

// Run forwards events until ctx is cancelled or the subscription closes.
func (p *Publisher) Run(ctx context.Context) {
	defer p.sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-p.sub.Events():
			if !ok {
				return
			}
			p.publish(ev)
		}
	}
}

func (p *Publisher) publish(ev eventbus.Event) {
	env := envelope{
		EventType: ev.Kind.String(),
		EntityID:  ev.ID,
		Timestamp: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(env)
	if err != nil {
		p.logger.Error("publisher.marshal_failed", zap.Error(err))
		return
	}

	subject := p.subjectPrefix + "." + ev.Kind.String()
	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"event_type":   []string{ev.Kind.String()},
			"content_type": []string{"application/json"},
		},
	}
	if err := p.nc.PublishMsg(msg); err != nil {
		p.logger.Error("publisher.publish_failed",
			zap.String("subject", subject),
			zap.Int64("entity_id", ev.ID),
			zap.Error(err))
		return
	}

	p.logger.Debug("publisher.publish_success",
		zap.String("subject", subject),
		zap.Int64("entity_id", ev.ID))
}
