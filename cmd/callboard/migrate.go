package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sergeybob123/callboard/internal/storage"
)

func migrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := flags.setup()
			if err != nil {
				return err
			}

			store, err := storage.NewStore(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			counts, err := store.Counts(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema ready at %s\n", cfg.Database.Path)
			fmt.Fprintf(out, "  users: %d, authors: %d, posts: %d, responses: %d\n",
				counts.Users, counts.Authors, counts.Posts, counts.Responses)
			return nil
		},
	}
}
