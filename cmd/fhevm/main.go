// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fhevm",
	Short: "FHEVM client - encrypt inputs and decrypt handles",
	Long: `fhevm is a client for FHEVM networks. It encrypts plaintext values into
ciphertext handles with input proofs, signs reencryption authorizations and
decrypts handles through a gateway.

Private keys are read from --private-key or the FHEVM_PRIVATE_KEY environment
variable.`,
	Version:       fmt.Sprintf("%s (built %s)", version, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(encryptCmd)
	rootCmd.AddCommand(decryptCmd)
	rootCmd.AddCommand(permitCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(gatewayCmd)
}
