package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sergeybob123/callboard/internal/storage"
)

func statusCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show configuration summary and board statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.setup()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Callboard Status")
			fmt.Fprintln(out, strings.Repeat("=", 40))

			fmt.Fprintln(out, "\nConfiguration:")
			fmt.Fprintf(out, "  Listen:     %s (%s mode)\n", cfg.Server.Addr, cfg.Server.Mode)
			fmt.Fprintf(out, "  Database:   %s\n", cfg.Database.Path)
			fmt.Fprintf(out, "  Page size:  %d\n", cfg.Board.PageSize)
			fmt.Fprintf(out, "  Token TTL:  %s\n", cfg.Auth.TokenTTL)
			fmt.Fprintf(out, "  Secret:     %s\n", secretStatus(cfg.Auth.Secret))

			fmt.Fprintln(out, "\nEvents:")
			switch {
			case cfg.NATS.Embedded:
				fmt.Fprintf(out, "  Transport:  embedded NATS (%s.*)\n", cfg.NATS.SubjectPrefix)
			case cfg.NATS.URL != "":
				fmt.Fprintf(out, "  Transport:  NATS %s (%s.*)\n", cfg.NATS.URL, cfg.NATS.SubjectPrefix)
			default:
				fmt.Fprintln(out, "  Transport:  log only")
			}

			fmt.Fprintln(out, "\nStorage:")
			store, err := storage.NewStore(cfg.Database.Path)
			if err != nil {
				fmt.Fprintf(out, "  Status:     FAILED (%s)\n", err)
				return nil
			}
			defer store.Close()

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "  Status:     FAILED (%s)\n", err)
				return nil
			}
			fmt.Fprintln(out, "  Status:     OK")
			fmt.Fprintf(out, "  Users:      %d\n", counts.Users)
			fmt.Fprintf(out, "  Authors:    %d\n", counts.Authors)
			fmt.Fprintf(out, "  Posts:      %d\n", counts.Posts)
			fmt.Fprintf(out, "  Responses:  %d\n", counts.Responses)
			return nil
		},
	}
}

func versionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "callboard %s\n", version)
		},
	}
}

func secretStatus(secret string) string {
	if secret == "" {
		return "not set (ephemeral secret at serve time)"
	}
	return "configured"
}
