package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mburuwhiz/idmaker-sub000/internal/config"
	"github.com/mburuwhiz/idmaker-sub000/internal/constants"
	"github.com/mburuwhiz/idmaker-sub000/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the preview and export server",
	Long: `Start the idmaker HTTP server.
The server renders card and sheet previews for the designer UI, manages
calibration profiles and runs batch exports in the background.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", constants.DefaultPort, "Port to listen on")
	serveCmd.Flags().String("host", constants.DefaultHost, "Host to bind to")
}

// resolveServeHostPort resolves port and host from flags and environment variables.
// Explicit flags win over WEB_PORT and WEB_HOST.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) (int, string) {
	port, host := cfg.Web.Port, cfg.Web.Host
	if cmd.Flags().Changed("port") {
		port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		host = mustGetString(cmd, "host")
	}
	return port, host
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	cfg.Web.Port, cfg.Web.Host = resolveServeHostPort(cmd, cfg)
	cfg.ProfilesFile = profilesPath(cfg)

	profiles, err := loadProfiles(cfg)
	if err != nil {
		return err
	}
	server := web.NewServer(cfg, newRenderer(cfg), profiles)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting idmaker server on http://%s:%d\n", cfg.Web.Host, cfg.Web.Port)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
