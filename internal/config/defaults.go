package config

const (
	defaultDataDir   = "~/.local/share/missive"
	defaultBind      = "127.0.0.1:8067"
	defaultSMTPPort  = 587
	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			Bind:    defaultBind,
		},
		SMTP: SMTP{
			Port: defaultSMTPPort,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
