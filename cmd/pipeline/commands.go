package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pipeline/internal/app"
	"pipeline/internal/audit"
	"pipeline/internal/authz"
	"pipeline/internal/middleware"
	"pipeline/internal/models"
	"pipeline/internal/repositories"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return app.Run(cfg, version)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := repositories.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := repositories.Migrate(ctx, db, cfg.Database.Driver); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var bootstrapTenant, bootstrapUser int64

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create the default stages for a tenant that has none",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bootstrapTenant <= 0 {
			return fmt.Errorf("--tenant must be positive")
		}
		ctx := cmd.Context()
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		created, stages, err := a.Stages.BootstrapDefaults(ctx, models.Tenant{ID: bootstrapTenant, UserID: bootstrapUser, RoleID: authz.RoleAdmin})
		if err != nil {
			return err
		}
		if !created {
			fmt.Fprintf(cmd.OutOrStdout(), "tenant %d already has %d stages\n", bootstrapTenant, len(stages))
			return nil
		}
		for _, st := range stages {
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", st.Position, st.Name, st.Color)
		}
		return nil
	},
}

var auditTailCmd = &cobra.Command{
	Use:   "audit-tail",
	Short: "Print activity messages from the audit queue",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.AMQP.URL == "" {
			return errors.New("amqp.url is not configured")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rmq, err := audit.Dial(cfg.AMQP.URL)
		if err != nil {
			return err
		}
		defer rmq.Close()

		out := cmd.OutOrStdout()
		return audit.NewConsumer(rmq.Ch).Run(ctx, func(msg audit.ActivityMessage) error {
			_, err := fmt.Fprintf(out, "%s\ttenant=%d\tuser=%d\t%s/%d\t%s\t%s\n",
				msg.CreatedAt.Format(time.RFC3339), msg.TenantID, msg.UserID,
				msg.EntityType, msg.EntityID, msg.Action, msg.Details)
			return err
		})
	},
}

var (
	tokenTenant, tokenUser int64
	tokenRole              int
	tokenTTL               time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for local testing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl := tokenTTL
		if ttl == 0 {
			ttl = cfg.Auth.TokenTTL
		}
		tok, err := middleware.IssueToken([]byte(cfg.Auth.JWTSecret), tokenTenant, tokenUser, tokenRole, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	bootstrapCmd.Flags().Int64Var(&bootstrapTenant, "tenant", 0, "tenant id")
	bootstrapCmd.Flags().Int64Var(&bootstrapUser, "user", 0, "user id recorded in the activity log")
	_ = bootstrapCmd.MarkFlagRequired("tenant")

	tokenCmd.Flags().Int64Var(&tokenTenant, "tenant", 0, "tenant id")
	tokenCmd.Flags().Int64Var(&tokenUser, "user", 0, "user id")
	tokenCmd.Flags().IntVar(&tokenRole, "role", authz.RoleSales, "role id")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default auth.token_ttl)")
	_ = tokenCmd.MarkFlagRequired("tenant")
	_ = tokenCmd.MarkFlagRequired("user")
}
