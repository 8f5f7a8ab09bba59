// Package app defines the connectd CLI: one subcommand per demo backend,
// all sharing the same authorization and token subsystem.
package app

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/auth"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/canva"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/config"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/crypto"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/database"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/demos/ecommerce"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/demos/playground"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/demos/realty"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/logger"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/server"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/session"
	"github.com/canva-sdks/canva-connect-api-starter-kit/pkg/tokenstore"
)

var rootCmd = &cobra.Command{
	Use:   "connectd",
	Short: "Backend for the Canva Connect API demos",
	Long: `connectd runs one of the Connect API demo backends. Each demo shares
the same OAuth authorization flow and encrypted token storage and differs
only in its routes and seeded data.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Initialize()
	},
}

// NewRootCmd builds the CLI command tree.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("db-dir", ".", "Directory holding the demo's db.json")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Fatalf("failed to bind debug flag: %v", err)
	}

	rootCmd.AddCommand(newDemoCmd("ecommerce", "Run the shop demo backend",
		func(db *database.Store) server.Demo { return ecommerce.NewBackend(db) },
		ecommerce.Seed(), ecommerce.NewDocument))
	rootCmd.AddCommand(newDemoCmd("realty", "Run the real-estate demo backend",
		func(db *database.Store) server.Demo { return realty.NewBackend(db) },
		realty.Seed(), realty.NewDocument))
	rootCmd.AddCommand(newDemoCmd("playground", "Run the API playground backend",
		func(db *database.Store) server.Demo { return playground.NewBackend() },
		playground.Seed(), playground.NewDocument))

	return rootCmd
}

func newDemoCmd(name, short string, build func(*database.Store) server.Demo, seed any, newDoc func() database.Document) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbDir, err := cmd.Flags().GetString("db-dir")
			if err != nil {
				return err
			}
			return runDemo(cmd, dbDir, build, seed, newDoc)
		},
	}
}

func runDemo(cmd *cobra.Command, dbDir string, build func(*database.Store) server.Demo, seed any, newDoc func() database.Document) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	encryptor, err := crypto.New(cfg.EncryptionKey)
	if err != nil {
		return fmt.Errorf("invalid encryption key: %w", err)
	}
	sessions, err := session.NewManager(cfg.EncryptionKey, cfg.Production)
	if err != nil {
		return err
	}

	db := database.New(dbDir, seed)
	store := tokenstore.New(db, encryptor, newDoc)
	oauth := canva.NewOAuthClient(cfg.APIBaseURL, cfg.ClientID, cfg.ClientSecret)
	service := auth.NewService(store, oauth)
	flow := auth.NewFlow(cfg, sessions, store, oauth, service)
	mw := auth.NewMiddleware(sessions, service, cfg.APIBaseURL)

	router := server.NewRouter(cfg, flow, mw, build(db))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.New(cfg, router).Start(ctx)
}
