package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sergeybob123/callboard/internal/core"
)

func userCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage accounts",
	}
	cmd.AddCommand(userCreateCmd(flags))
	cmd.AddCommand(userPermCmd(flags, "grant", "Add permissions to a user"))
	cmd.AddCommand(userPermCmd(flags, "revoke", "Remove permissions from a user"))
	cmd.AddCommand(userActiveCmd(flags, "activate", true))
	cmd.AddCommand(userActiveCmd(flags, "deactivate", false))
	return cmd
}

func userCreateCmd(flags *globalFlags) *cobra.Command {
	var (
		email         string
		displayName   string
		password      string
		passwordStdin bool
		noAuthor      bool
		perms         []string
	)

	cmd := &cobra.Command{
		Use:   "create <username>",
		Short: "Create an account",
		Long: `Create an account. By default the account gets an author profile and
the add_post, change_post and delete_post permissions, like a self-registered
user.

Examples:
  callboard user create alice --password 's3cret-pass'
  echo 's3cret-pass' | callboard user create bob --password-stdin --no-author --perm ""`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				p, err := readPassword(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = p
			}
			if password == "" {
				return errors.New("a password is required (--password or --password-stdin)")
			}

			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			accounts, closeStore, err := accountStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			user, err := accounts.Create(cmd.Context(), core.RegisterForm{
				Username:    args[0],
				Email:       email,
				Password:    password,
				DisplayName: displayName,
			}, core.CreateOptions{NoAuthor: noAuthor, Permissions: nonEmpty(perms)})
			if err != nil {
				return describe(err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&displayName, "display-name", "", "author display name (default username)")
	cmd.Flags().StringVar(&password, "password", "", "password")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	cmd.Flags().BoolVar(&noAuthor, "no-author", false, "create a read-only account without an author profile")
	cmd.Flags().StringSliceVar(&perms, "perm", core.DefaultPermissions, "permissions to grant")
	return cmd
}

func userPermCmd(flags *globalFlags, verb, short string) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <username> <permission>...",
		Short: short,
		Long: fmt.Sprintf(`%s.

Permissions: %s`, short, strings.Join(core.DefaultPermissions, ", ")),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			accounts, closeStore, err := accountStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			apply := accounts.Grant
			if verb == "revoke" {
				apply = accounts.Revoke
			}
			user, err := apply(cmd.Context(), args[0], args[1:]...)
			if err != nil {
				return describe(err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}

func userActiveCmd(flags *globalFlags, verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <username>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := flags.setup()
			if err != nil {
				return err
			}
			accounts, closeStore, err := accountStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			user, err := accounts.SetActive(cmd.Context(), args[0], active)
			if err != nil {
				return describe(err)
			}
			printUser(cmd.OutOrStdout(), user)
			return nil
		},
	}
}

func printUser(w io.Writer, u *core.User) {
	fmt.Fprintf(w, "User:        %s (id %d)\n", u.Username, u.ID)
	if u.Email != "" {
		fmt.Fprintf(w, "Email:       %s\n", u.Email)
	}
	fmt.Fprintf(w, "Active:      %t\n", u.IsActive)
	fmt.Fprintf(w, "Author:      %t\n", u.IsAuthor())
	perms := "none"
	if len(u.Permissions) > 0 {
		perms = strings.Join(u.Permissions, ", ")
	}
	fmt.Fprintf(w, "Permissions: %s\n", perms)
}

// describe turns field errors into a readable CLI message
func describe(err error) error {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return fmt.Errorf("invalid input: %s", strings.TrimPrefix(verr.Error(), "validation failed: "))
	}
	if errors.Is(err, core.ErrConflict) {
		return errors.New("username already taken")
	}
	if errors.Is(err, core.ErrNotFound) {
		return errors.New("no such user")
	}
	return err
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// nonEmpty drops blank entries so that --perm "" grants nothing
func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
