package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/nats-io/nats.go"
	"go.uber.org/fx"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/carolhungwt/physio-doctor-platform/internal/service/referral"
	"github.com/carolhungwt/physio-doctor-platform/pkg/events"
)

// WorkerModule registers the background jobs: the referral expiry sweep and
// the NATS referral event consumer.
var WorkerModule = fx.Module("workers",
	fx.Invoke(RegisterWorkers),
)

type WorkerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	NC          *nats.Conn
	Bus         *events.Bus
	ReferralSvc referral.Service
}

func RegisterWorkers(p WorkerParams) {
	var (
		scheduler *gocron.Scheduler
		subs      []*nats.Subscription
	)

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if p.Cfg.Referral.ExpirySweepEnabled {
				s, err := startExpirySweep(p.ReferralSvc, p.Cfg.Referral.ExpirySweepInterval, p.Logger)
				if err != nil {
					return err
				}
				scheduler = s
			}

			if p.NC != nil {
				var err error
				subs, err = p.Bus.Subscribe(p.NC, referralEventLogger(p.Logger))
				if err != nil {
					return err
				}
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if scheduler != nil {
				scheduler.Stop()
			}
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			// Drain handled by ProvideNatsClient
			return nil
		},
	})
}

// ---------------------------------------------------------------------------
// expiry_sweep
// ---------------------------------------------------------------------------

func startExpirySweep(svc referral.Service, every time.Duration, logger *slog.Logger) (*gocron.Scheduler, error) {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	_, err := scheduler.Every(every).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		n, err := svc.ExpireStale(ctx)
		if err != nil {
			logger.Error("expiry_sweep: failed", "error", err)
			return
		}
		if n > 0 {
			logger.Info("expiry_sweep: referrals expired", "count", n)
		}
	})
	if err != nil {
		return nil, err
	}

	scheduler.StartAsync()
	logger.Info("expiry_sweep: started", "interval", every)
	return scheduler, nil
}

// ---------------------------------------------------------------------------
// referral_event_worker
// ---------------------------------------------------------------------------

// referralEventLogger records every referral event as an audit line.
// Notification delivery hangs off this consumer once it exists.
func referralEventLogger(logger *slog.Logger) events.Handler {
	return func(kind string, ev events.ReferralEvent) {
		attrs := []any{
			"kind", kind,
			"referral_id", ev.ReferralID,
			"doctor_id", ev.DoctorID,
			"patient_id", ev.PatientID,
			"physio_id", ev.PhysioID,
			"status", ev.Status,
		}
		if ev.PreviousStatus != "" {
			attrs = append(attrs, "previous_status", ev.PreviousStatus)
		}
		if ev.NewPatient {
			attrs = append(attrs, "new_patient", true)
		}
		logger.Info("referral_event_worker: event received", attrs...)
	}
}
