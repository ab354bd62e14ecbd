package logs

import (
	"fmt"
	"log/slog"

	"github.com/carolhungwt/physio-doctor-platform/config"
	"github.com/grafana/loki-client-go/loki"
	promconfig "github.com/prometheus/common/config"
	slogloki "github.com/samber/slog-loki/v3"
)

// newLokiHandler pushes records to Loki in batches. The stop func flushes
// the pending batch.
func newLokiHandler(cfg *config.Config, level slog.Level) (slog.Handler, func(), error) {
	lc := cfg.Logging.Output.Loki

	clientCfg, err := loki.NewDefaultConfig(lc.Endpoint)
	if err != nil {
		return nil, nil, fmt.Errorf("loki config: %w", err)
	}
	clientCfg.TenantID = lc.TenantID
	if lc.Username != "" {
		clientCfg.Client.BasicAuth = &promconfig.BasicAuth{
			Username: lc.Username,
			Password: promconfig.Secret(lc.Password),
		}
	}

	client, err := loki.New(clientCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("loki client: %w", err)
	}

	h := slogloki.Option{Level: level, Client: client}.NewLokiHandler()
	return h, client.Stop, nil
}
