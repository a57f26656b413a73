package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"careplan-service/cmd/bootstrap"
	"careplan-service/internal/delivery/dto"
	"careplan-service/internal/infrastructure/database"
	"careplan-service/pkg/jwt"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "careplan",
		Short:        "Pharmacy care plan intake and generation service",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			withWorker, _ := cmd.Flags().GetBool("with-worker")
			return run(bootstrap.Options{Server: true, Worker: withWorker})
		},
	}
	cmd.Flags().Bool("with-worker", false, "Also run generation workers in this process")
	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run generation workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(bootstrap.Options{Worker: true})
		},
	}
}

func run(opts bootstrap.Options) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize application with all dependencies
	app, err := bootstrap.New(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	for _, direction := range []string{database.MigrateUp, database.MigrateDown} {
		cmd.AddCommand(&cobra.Command{
			Use:   direction,
			Short: fmt.Sprintf("Migrate the schema %s", direction),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := bootstrap.LoadConfig()
				if err != nil {
					return err
				}
				return database.RunMigrations(cfg.DB, direction, log)
			},
		})
	}

	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an intake partner token",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("source")

			cfg, _, err := bootstrap.LoadConfig()
			if err != nil {
				return err
			}

			jwtService := jwt.NewJWTService(cfg.JWT)
			if !jwtService.Enabled() {
				return fmt.Errorf("INTAKE_JWT_SECRET is not set")
			}

			token, tokenID, err := jwtService.GeneratePartnerToken(source)
			if err != nil {
				return err
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(dto.TokenResponse{
				Token:     token,
				TokenID:   tokenID,
				Source:    source,
				ExpiresAt: claims.ExpiresAt.Time,
			})
		},
	}
	cmd.Flags().String("source", "", "Intake source the token is valid for")
	_ = cmd.MarkFlagRequired("source")
	return cmd
}
