package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Exchange magic links for bearer tokens against a running relay",
}

var authMagicLinkCmd = &cobra.Command{
	Use:   "magic-link",
	Short: "Request a magic link for an email address",
	RunE:  runAuthMagicLink,
}

var authVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Exchange a magic-link token for a device's bearer token",
	RunE:  runAuthVerify,
}

func init() {
	authMagicLinkCmd.Flags().String("server", "http://localhost:8787", "Relay base URL")
	authMagicLinkCmd.Flags().String("email", "", "Email address to send a magic link to (required)")
	_ = authMagicLinkCmd.MarkFlagRequired("email")

	authVerifyCmd.Flags().String("server", "http://localhost:8787", "Relay base URL")
	authVerifyCmd.Flags().String("token", "", "Magic-link token (required)")
	authVerifyCmd.Flags().String("device-name", "", "Human-readable name for this device")
	authVerifyCmd.Flags().String("public-key", "", "Device's 32-byte public key, hex-encoded (required)")
	_ = authVerifyCmd.MarkFlagRequired("token")
	_ = authVerifyCmd.MarkFlagRequired("public-key")

	authCmd.AddCommand(authMagicLinkCmd)
	authCmd.AddCommand(authVerifyCmd)
}

var authHTTPClient = &http.Client{Timeout: 10 * time.Second}

func runAuthMagicLink(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	email, _ := cmd.Flags().GetString("email")

	body, _ := json.Marshal(map[string]string{"email": email})
	resp, err := authHTTPClient.Post(server+"/auth/magic-link", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("auth magic-link: %w", err)
	}
	defer resp.Body.Close()

	var result map[string]string
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth magic-link: relay returned %s: %s", resp.Status, result["error"])
	}
	fmt.Println("magic link sent")
	return nil
}

func runAuthVerify(cmd *cobra.Command, args []string) error {
	server, _ := cmd.Flags().GetString("server")
	token, _ := cmd.Flags().GetString("token")
	deviceName, _ := cmd.Flags().GetString("device-name")
	pubKeyHex, _ := cmd.Flags().GetString("public-key")

	rawKey, err := hex.DecodeString(pubKeyHex)
	if err != nil || len(rawKey) != 32 {
		return fmt.Errorf("auth verify: --public-key must be 32 bytes of hex")
	}

	body, _ := json.Marshal(map[string]any{
		"token":       token,
		"device_name": deviceName,
		"public_key":  rawKey,
	})
	resp, err := authHTTPClient.Post(server+"/auth/verify", "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("auth verify: %w", err)
	}
	defer resp.Body.Close()

	var result map[string]string
	json.NewDecoder(resp.Body).Decode(&result)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth verify: relay returned %s: %s", resp.Status, result["error"])
	}

	fmt.Printf("account_id: %s\n", result["account_id"])
	fmt.Printf("device_id:  %s\n", result["device_id"])
	fmt.Printf("jwt:        %s\n", result["jwt"])
	return nil
}
