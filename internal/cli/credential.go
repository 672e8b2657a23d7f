package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vietddude/extractor/internal/core/domain"
	"github.com/vietddude/extractor/internal/credential"
)

var (
	addPlatform   string
	addSecretFile string
)

var credentialCmd = &cobra.Command{
	Use:   "credential",
	Short: "Manage the credential pool",
}

var credentialAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a credential to the pool",
	Run:   runCredentialAdd,
}

var credentialEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Enable a credential",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setEnabled(args[0], true) },
}

var credentialDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Disable a credential",
	Args:  cobra.ExactArgs(1),
	Run:   func(cmd *cobra.Command, args []string) { setEnabled(args[0], false) },
}

var credentialRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a credential from the pool",
	Args:  cobra.ExactArgs(1),
	Run:   runCredentialRemove,
}

var credentialProbeCmd = &cobra.Command{
	Use:   "probe <id>",
	Short: "Run the platform liveness check for a credential",
	Args:  cobra.ExactArgs(1),
	Run:   runCredentialProbe,
}

func init() {
	credentialAddCmd.Flags().StringVar(&addPlatform, "platform", "", "target platform (required)")
	credentialAddCmd.Flags().StringVar(&addSecretFile, "secret-file", "", "file holding the session cookies (required)")
	_ = credentialAddCmd.MarkFlagRequired("platform")
	_ = credentialAddCmd.MarkFlagRequired("secret-file")

	credentialCmd.AddCommand(credentialAddCmd)
	credentialCmd.AddCommand(credentialEnableCmd)
	credentialCmd.AddCommand(credentialDisableCmd)
	credentialCmd.AddCommand(credentialRemoveCmd)
	credentialCmd.AddCommand(credentialProbeCmd)
	rootCmd.AddCommand(credentialCmd)
}

func runCredentialAdd(cmd *cobra.Command, args []string) {
	cfg := setup()

	platform := domain.Platform(addPlatform)
	if !platform.Valid() {
		slog.Error("Unknown platform", "platform", addPlatform)
		os.Exit(1)
	}

	secret, err := os.ReadFile(addSecretFile)
	if err != nil {
		slog.Error("Failed to read secret file", "error", err)
		os.Exit(1)
	}

	repo, db, err := openRepo(cfg)
	if err != nil {
		slog.Error("Failed to open credential store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cred := &domain.Credential{
		Platform: platform,
		Secret:   string(secret),
		Status:   domain.CredentialHealthy,
		Enabled:  true,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.Create(ctx, cred); err != nil {
		slog.Error("Failed to create credential", "error", err)
		os.Exit(1)
	}
	fmt.Printf("Created credential %s for %s\n", cred.ID, platform)
}

func setEnabled(id string, enabled bool) {
	cfg := setup()

	repo, db, err := openRepo(cfg)
	if err != nil {
		slog.Error("Failed to open credential store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.SetEnabled(ctx, id, enabled); err != nil {
		slog.Error("Failed to update credential", "id", id, "error", err)
		os.Exit(1)
	}
	fmt.Printf("Credential %s enabled=%t\n", id, enabled)
}

func runCredentialRemove(cmd *cobra.Command, args []string) {
	cfg := setup()

	repo, db, err := openRepo(cfg)
	if err != nil {
		slog.Error("Failed to open credential store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := repo.Delete(ctx, args[0]); err != nil {
		slog.Error("Failed to remove credential", "id", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Printf("Removed credential %s\n", args[0])
}

func runCredentialProbe(cmd *cobra.Command, args []string) {
	cfg := setup()

	repo, db, err := openRepo(cfg)
	if err != nil {
		slog.Error("Failed to open credential store", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	pool := credential.NewPool(repo, time.Duration(cfg.Pool.CooldownMinutes)*time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	status, err := pool.ProbeHealth(ctx, args[0])
	if err != nil {
		slog.Error("Probe failed", "id", args[0], "error", err)
		os.Exit(1)
	}
	fmt.Printf("Credential %s is %s\n", args[0], status)
}
