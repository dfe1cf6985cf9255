package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/redmonkez12/whisper-api/internal/auth"
	"github.com/redmonkez12/whisper-api/internal/config"
	"github.com/redmonkez12/whisper-api/internal/docstore"
	"github.com/redmonkez12/whisper-api/internal/message"
	"github.com/redmonkez12/whisper-api/internal/user"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "whisperctl",
		Short:        "Operator tooling for the Whisper API",
		SilenceUsage: true,
	}

	indexesCmd := &cobra.Command{
		Use:   "indexes",
		Short: "Create the unique and lookup indexes on the configured store",
		RunE:  runIndexes,
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue or inspect session tokens",
	}

	issueCmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a session token for a user",
		RunE:  runTokenIssue,
	}
	issueCmd.Flags().String("id", "", "User id")
	issueCmd.Flags().String("username", "", "Username")
	_ = issueCmd.MarkFlagRequired("id")

	inspectCmd := &cobra.Command{
		Use:   "inspect [token]",
		Short: "Verify a session token and print its claims",
		Args:  cobra.ExactArgs(1),
		RunE:  runTokenInspect,
	}

	tokenCmd.AddCommand(issueCmd, inspectCmd)
	rootCmd.AddCommand(indexesCmd, tokenCmd)
	return rootCmd
}

func runIndexes(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	store, err := docstore.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer store.Close(context.Background())

	indexes := append(user.Indexes(), message.Indexes()...)
	if err := store.EnsureIndexes(ctx, indexes...); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}

	for _, idx := range indexes {
		fmt.Fprintf(cmd.OutOrStdout(), "%s.%s unique=%t sparse=%t\n", idx.Collection, idx.Field, idx.Unique, idx.Sparse)
	}
	return nil
}

func runTokenIssue(cmd *cobra.Command, _ []string) error {
	id, _ := cmd.Flags().GetString("id")
	username, _ := cmd.Flags().GetString("username")

	tokens, err := tokenService()
	if err != nil {
		return err
	}

	token, err := tokens.CreateToken(id, username)
	if err != nil {
		return fmt.Errorf("failed to create token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}

func runTokenInspect(cmd *cobra.Command, args []string) error {
	tokens, err := tokenService()
	if err != nil {
		return err
	}

	claims, err := tokens.VerifyToken(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(claims)
}

func tokenService() (auth.TokenService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return auth.NewTokenService(cfg.Auth.TokenStrategy, cfg.Auth.JWTSecret, cfg.Auth.PasetoKey)
}
