package cli

import (
	"quiz-server/internal/config"
	"quiz-server/internal/log"
)

// loadConfig reads the config file, applies flag overrides and configures logging.
func loadConfig(opts *overrides) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return cfg, err
	}
	if opts.port != "" {
		cfg.Server.Port = opts.port
	}
	if opts.addr != "" {
		cfg.Server.Addr = opts.addr
	}
	if opts.maxSessions > 0 {
		cfg.Server.MaxSessions = opts.maxSessions
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
	}
	log.SetLogger(cfg.Log.Level)
	return cfg, nil
}
