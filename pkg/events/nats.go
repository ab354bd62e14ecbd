package events

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/pkg/constants"
)

// Connect dials NATS. An empty URL returns a nil connection and no error so
// the service can run without a broker.
func Connect(cfg config.NatsConfig, logger *slog.Logger) (*nats.Conn, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	timeout := time.Duration(cfg.ConnectTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(constants.ServiceName),
		nats.Timeout(timeout),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return nc, nil
}

// Handler receives a decoded event with the kind it was published under.
type Handler func(kind string, ev ReferralEvent)

// Subscribe attaches h to every referral subject under the bus prefix.
func (b *Bus) Subscribe(nc *nats.Conn, h Handler) ([]*nats.Subscription, error) {
	var subs []*nats.Subscription
	for _, kind := range []string{KindReferralCreated, KindReferralStatus} {
		kind := kind
		sub, err := nc.Subscribe(b.Subject(kind, ""), func(msg *nats.Msg) {
			ev, err := Decode(msg.Data)
			if err != nil {
				b.logger.Warn("events: undecodable message", "subject", msg.Subject, "error", err)
				return
			}
			h(kind, ev)
		})
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return nil, fmt.Errorf("subscribe %s: %w", kind, err)
		}
		subs = append(subs, sub)
	}
	return subs, nil
}
