package main

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/go-auth-flow/internal/auth"
	"github.com/redmonkez12/go-auth-flow/internal/config"
	"github.com/redmonkez12/go-auth-flow/internal/database"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
	"github.com/redmonkez12/go-auth-flow/internal/user"
)

type configLoader func() (*config.Config, error)

func newRootCmd(load configLoader) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "authctl",
		Short:         "Operate the auth service",
		Long:          "Administrative commands for the auth service: schema migrations, secret generation and session token inspection.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newMigrateCmd(load),
		newKeygenCmd(),
		newTokenCmd(load),
	)

	return rootCmd
}

func newMigrateCmd(load configLoader) *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			logger := logging.NewLogger(cfg.Server.IsDevelopment())
			if err := database.Migrate(cmd.Context(), db.DB, cfg.Database.Driver, logger); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the state of every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			db, err := database.Open(cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()

			statuses, err := database.MigrationStatus(cmd.Context(), db.DB, cfg.Database.Driver)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, s := range statuses {
				applied := "pending"
				if !s.AppliedAt.IsZero() {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Fprintf(out, "%05d  %-8s  %s  %s\n", s.Source.Version, s.State, applied, s.Source.Path)
			}
			return nil
		},
	}

	migrateCmd.AddCommand(statusCmd)
	return migrateCmd
}

func newKeygenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keygen",
		Short: "Generate random secrets in .env format",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range []string{"PASETO_KEY", "COOKIE_SECRET", "JWT_SECRET"} {
				secret, err := randomHex(32)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s=%s\n", name, secret)
			}
			return nil
		},
	}
}

func newTokenCmd(load configLoader) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Mint or inspect session tokens",
	}

	inspectCmd := &cobra.Command{
		Use:   "inspect <token>",
		Short: "Verify a session token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := loadCodec(load)
			if err != nil {
				return err
			}

			claims, err := codec.Verify(args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(claims)
		},
	}

	var (
		userID string
		name   string
		role   string
		ttl    time.Duration
	)
	mintCmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a session token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if cfg.Server.IsProduction() {
				return fmt.Errorf("refusing to mint tokens in production")
			}

			codec, err := auth.NewTokenCodec(cfg.Auth)
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.Auth.SessionTTL
			}

			token, err := codec.Mint(auth.Claims{UserID: userID, Name: name, Role: user.Role(role)}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	mintCmd.Flags().StringVar(&userID, "id", "", "User ID")
	mintCmd.Flags().StringVar(&name, "name", "", "User name")
	mintCmd.Flags().StringVar(&role, "role", string(user.RoleUser), "Role (admin, user)")
	mintCmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to SESSION_TTL)")
	_ = mintCmd.MarkFlagRequired("id")

	tokenCmd.AddCommand(inspectCmd, mintCmd)
	return tokenCmd
}

func loadCodec(load configLoader) (auth.TokenCodec, error) {
	cfg, err := load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return auth.NewTokenCodec(cfg.Auth)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

