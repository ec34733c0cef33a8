package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/google/uuid"

	"github.com/cuemby/sakya/pkg/fragment"
	"github.com/cuemby/sakya/pkg/identity"
	"github.com/cuemby/sakya/pkg/log"
	"github.com/cuemby/sakya/pkg/relay"
	"github.com/cuemby/sakya/pkg/room"
	"github.com/cuemby/sakya/pkg/store"
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Run or inspect the sakya relay",
}

var relayServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the relay's HTTP and WebSocket server",
	Long: `Start the relay (§6): magic-link auth, device registration, and
the /sync WebSocket endpoint that rooms, stores, and forwards encrypted
updates between a project's connected devices.`,
	RunE: runRelayServe,
}

func init() {
	relayServeCmd.Flags().String("addr", ":8787", "Address to listen on")
	relayServeCmd.Flags().String("data-dir", "./data", "Directory for the update log and snapshot store")
	relayServeCmd.Flags().String("jwt-secret", "", "Secret used to sign bearer tokens (falls back to $SAKYA_JWT_SECRET)")
	relayServeCmd.Flags().Int("max-fragment", fragment.DefaultMaxFragmentSize, "Maximum plaintext bytes per wire fragment")
	relayServeCmd.Flags().Int64("fragment-ttl", 30, "Seconds an incomplete fragment set is held before being discarded")
	relayServeCmd.Flags().String("config", "", "YAML config file (flags override its fields)")

	relayCmd.AddCommand(relayServeCmd)
}

func runRelayServe(cmd *cobra.Command, args []string) error {
	addr, _ := cmd.Flags().GetString("addr")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	secret, _ := cmd.Flags().GetString("jwt-secret")
	maxFragment, _ := cmd.Flags().GetInt("max-fragment")
	fragmentTTL, _ := cmd.Flags().GetInt64("fragment-ttl")
	configPath, _ := cmd.Flags().GetString("config")

	if configPath != "" {
		fileCfg, err := loadRelayConfig(configPath)
		if err != nil {
			return err
		}
		if !cmd.Flags().Changed("addr") && fileCfg.Addr != "" {
			addr = fileCfg.Addr
		}
		if !cmd.Flags().Changed("data-dir") && fileCfg.DataDir != "" {
			dataDir = fileCfg.DataDir
		}
		if !cmd.Flags().Changed("jwt-secret") && fileCfg.JWTSecret != "" {
			secret = fileCfg.JWTSecret
		}
		if !cmd.Flags().Changed("max-fragment") && fileCfg.MaxFragment != 0 {
			maxFragment = fileCfg.MaxFragment
		}
		if !cmd.Flags().Changed("fragment-ttl") && fileCfg.FragmentTTL != 0 {
			fragmentTTL = fileCfg.FragmentTTL
		}
	}

	if secret == "" {
		secret = os.Getenv("SAKYA_JWT_SECRET")
	}
	if secret == "" {
		return fmt.Errorf("relay serve: --jwt-secret or $SAKYA_JWT_SECRET is required")
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("relay serve: %w", err)
	}

	st, err := store.Open(dataDir)
	if err != nil {
		return fmt.Errorf("relay serve: open store: %w", err)
	}
	defer st.Close()

	logger := log.WithComponent("relay")
	rooms := room.NewManager(func(projectID uuid.UUID, connID string, missed int) {
		logger.Warn().Str("project", projectID.String()).Str("conn", connID).Int("missed", missed).Msg("subscriber lagged, dropping messages")
	})

	srv := relay.NewServer(relay.Config{
		Identity:      identity.New([]byte(secret)),
		Rooms:         rooms,
		Store:         st,
		ServerVersion: Version,
		MaxFragment:   maxFragment,
		FragmentTTL:   fragmentTTL,
	})

	logger.Info().Str("addr", addr).Str("data_dir", dataDir).Msg("starting sakya relay")
	return srv.ListenAndServe(addr)
}
