package authorize

import "github.com/carolhungwt/physio-doctor-platform/config"

type Config struct {
	CasbinModelPath string

	// EnableAudit wraps the authorizer in AuditedAuthorization.
	EnableAudit bool

	// SuperadminBypass lets role:admin skip policy lookup entirely.
	SuperadminBypass bool

	// PolicySyncEnabled attaches the Postgres LISTEN/NOTIFY watcher so policy
	// edits on one instance reach the others.
	PolicySyncEnabled bool
}

func DefaultConfig() Config {
	return Config{
		CasbinModelPath:  "casbin_model.conf",
		EnableAudit:      true,
		SuperadminBypass: true,
	}
}

func FromCentralConfig(c config.AuthorizationConfig) Config {
	cfg := DefaultConfig()
	if c.CasbinModelPath != "" {
		cfg.CasbinModelPath = c.CasbinModelPath
	}
	cfg.EnableAudit = c.EnableAudit
	cfg.PolicySyncEnabled = c.PolicySyncEnabled
	return cfg
}
