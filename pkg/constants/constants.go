package constants

const (
	ServiceName  = "physio-doctor-platform"
	ConfigName   = "config"
	ConfigFormat = "yaml"
	EnvPrefix    = "PDP"
)
