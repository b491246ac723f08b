package cli

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// overrides holds flag values that take precedence over the config file.
type overrides struct {
	configPath  string
	port        string
	addr        string
	maxSessions int
	logLevel    string
}

// Execute runs the CLI.
func Execute() error {
	err := newRootCmd().Execute()
	if err != nil {
		logger.WithError(err).Error("command failed")
	}
	return err
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envMax := envInt("MAX_SESSIONS")

	opts := &overrides{}
	cmd := &cobra.Command{
		Use:           "quiz-server",
		Short:         "Line-protocol quiz server with a bounded session pool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.port, "port", os.Getenv("PORT"), "quiz port (overrides server.port)")
	cmd.PersistentFlags().StringVar(&opts.addr, "addr", "", "bind or dial address (overrides server.addr)")
	cmd.PersistentFlags().IntVar(&opts.maxSessions, "max-sessions", envMax, "concurrent sessions (overrides server.max_sessions)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, warn or error (overrides log.level)")
	cmd.AddCommand(NewStartCmd(opts))
	cmd.AddCommand(NewMigrateCmd(opts))
	cmd.AddCommand(NewPlayCmd(opts))
	return cmd
}

// envInt reads a positive integer from the environment. Unset yields zero;
// an unusable value is logged and ignored.
func envInt(name string) int {
	raw := os.Getenv(name)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		logger.WithField("env", name).WithField("value", raw).Warn("ignoring invalid integer environment variable")
		return 0
	}
	return n
}
