package main

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/cuemby/sakya/pkg/client"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run an interactive sync client against a relay",
	Long: `Connect the sync client engine (§4.J) to a relay and drive it from
stdin. Useful for pairing a second device or watching replication happen
live without a full editor attached.

Once connected, type:
  enable <project-uuid> <32-byte-hex-key>
  send <project-uuid> <text...>
  disable <project-uuid>
  quit
`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().String("server", "ws://localhost:8787/sync", "Relay WebSocket URL")
	syncCmd.Flags().String("token", "", "Bearer token from 'sakya auth verify' (required)")
	syncCmd.Flags().String("device-id", "", "This device's id (random if omitted)")
	syncCmd.Flags().String("queue-dir", "", "Directory for offline queues (temp dir if omitted)")
	_ = syncCmd.MarkFlagRequired("token")
}

func runSync(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	deviceIDFlag, _ := cmd.Flags().GetString("device-id")
	queueDir, _ := cmd.Flags().GetString("queue-dir")

	deviceID := uuid.New()
	if deviceIDFlag != "" {
		parsed, err := uuid.Parse(deviceIDFlag)
		if err != nil {
			return fmt.Errorf("sync: invalid --device-id: %w", err)
		}
		deviceID = parsed
	}
	if queueDir == "" {
		dir, err := os.MkdirTemp("", "sakya-queue-")
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		queueDir = dir
	}

	engine := client.Connect(server, token, deviceID, queueDir)
	defer engine.Disconnect()

	events := engine.Subscribe()
	go func() {
		for ev := range events {
			printEvent(ev)
		}
	}()

	fmt.Printf("connected as device %s, type 'quit' to exit\n", deviceID)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" {
			return nil
		}
		if err := runSyncLine(engine, line); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}

func runSyncLine(engine *client.Engine, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "enable":
		if len(fields) != 3 {
			return fmt.Errorf("usage: enable <project-uuid> <32-byte-hex-key>")
		}
		projectID, err := uuid.Parse(fields[1])
		if err != nil {
			return err
		}
		rawKey, err := hex.DecodeString(fields[2])
		if err != nil || len(rawKey) != 32 {
			return fmt.Errorf("key must be 32 bytes of hex")
		}
		var key [32]byte
		copy(key[:], rawKey)
		return engine.EnableProject(projectID, key)

	case "disable":
		if len(fields) != 2 {
			return fmt.Errorf("usage: disable <project-uuid>")
		}
		projectID, err := uuid.Parse(fields[1])
		if err != nil {
			return err
		}
		engine.DisableProject(projectID)
		return nil

	case "send":
		if len(fields) < 3 {
			return fmt.Errorf("usage: send <project-uuid> <text...>")
		}
		projectID, err := uuid.Parse(fields[1])
		if err != nil {
			return err
		}
		return engine.SendUpdate(projectID, []byte(strings.Join(fields[2:], " ")))

	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}

func printEvent(ev client.Event) {
	switch ev.Kind {
	case client.EventStatusChanged:
		fmt.Printf("[status] %s\n", ev.Status.Kind)
	case client.EventProjectJoined:
		fmt.Printf("[joined] %s\n", ev.ProjectID)
	case client.EventUpdateReceived:
		fmt.Printf("[update] %s: %s\n", ev.ProjectID, string(ev.Plaintext))
	case client.EventProjectError:
		fmt.Printf("[error] %s: %s\n", ev.ProjectID, ev.Message)
	}
}
