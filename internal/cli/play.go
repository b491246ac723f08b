package cli

import (
	"os"

	"quiz-server/internal/client"

	"github.com/spf13/cobra"
)

// NewPlayCmd joins a quiz as a participant, answering from stdin.
func NewPlayCmd(opts *overrides) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play a quiz against a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if cfg.Server.Addr == "" {
				cfg.Server.Addr = "localhost"
			}
			conn, err := client.Dial(cmd.Context(), cfg.ListenAddr())
			if err != nil {
				return err
			}
			_, err = client.New(conn, os.Stdin, cmd.OutOrStdout()).Run(cmd.Context())
			return err
		},
	}
}
