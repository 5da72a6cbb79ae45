// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math/big"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/luxfi/log"
	"github.com/spf13/cobra"
	"github.com/tuneinsight/lattigo/v5/he/heint"
	"golang.org/x/sync/errgroup"

	"github.com/luxfi/fhevm/engine/lattice"
	"github.com/luxfi/fhevm/gateway"
	"github.com/luxfi/fhevm/gateway/config"
)

const readHeaderTimeout = 10 * time.Second

func init() {
	config.AddFlags(gatewayCmd.Flags())
}

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Run a development gateway",
	Long: `Run a development gateway holding the network keypair.

The gateway registers input proofs, authorizes reencryption requests with
EIP-712 signatures and decrypts with the network secret key. Every option
may also be set with an FHEVM_GATEWAY_ environment variable or a JSON
config file.`,
	Args: cobra.NoArgs,
	RunE: runGateway,
}

func runGateway(cmd *cobra.Command, _ []string) error {
	v, err := config.BuildViper(cmd.Flags())
	if err != nil {
		return fmt.Errorf("couldn't configure flags: %w", err)
	}
	cfg, err := config.NewConfig(v)
	if err != nil {
		return fmt.Errorf("couldn't build config: %w", err)
	}

	logger := log.Root()
	logger.Info("Initializing fhevm gateway")

	ctx := cmd.Context()
	rt := lattice.Default()
	if err := rt.Bootstrap(ctx); err != nil {
		return err
	}
	params, err := rt.Parameters()
	if err != nil {
		return err
	}
	keys, err := loadNetworkKeys(cfg.NetworkKeyFile, params, logger)
	if err != nil {
		return err
	}
	publicKey, err := keys.Public.MarshalBinary()
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var kms *gateway.KMSSigner
	if cfg.KMSSignatures {
		kms, err = gateway.GenerateKMSSigner()
		if err != nil {
			return fmt.Errorf("failed to create KMS signer: %w", err)
		}
	}

	server, err := gateway.NewServer(gateway.ServerConfig{
		ChainID:   new(big.Int).SetUint64(cfg.ChainID),
		PublicKey: publicKey,
		Decrypter: lattice.NewDecrypter(params, keys.Secret),
		Store:     store,
		KMS:       kms,
		Log:       logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.APIPort),
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		logger.Info("Gateway listening", log.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start gateway server: %w", err)
		}
		return nil
	})
	// Handle graceful shutdown
	errGroup.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := errGroup.Wait(); err != nil {
		logger.Error("Exited with error", log.Err(err))
		return err
	}
	logger.Info("Gateway stopped")
	return nil
}

func openStore(cfg config.Config) (gateway.Store, error) {
	if cfg.Persistent() {
		return gateway.NewBadgerStore(cfg.DataDir, cfg.StoreCacheSize)
	}
	return gateway.NewMemoryStore(cfg.StoreCacheSize)
}

// loadNetworkKeys reads the network keypair from path, generating and
// writing one when the file does not exist. An empty path yields an
// ephemeral keypair.
func loadNetworkKeys(path string, params heint.Parameters, logger log.Logger) (*lattice.KeyPair, error) {
	if path == "" {
		logger.Warn("no network key file configured, using an ephemeral keypair")
		return lattice.GenerateKeyPair(params), nil
	}

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		return lattice.UnmarshalKeyPair(params, b)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read network key file: %w", err)
	}

	keys := lattice.GenerateKeyPair(params)
	b, err = keys.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write network key file: %w", err)
	}
	logger.Info("generated network keypair", log.String("path", path))
	return keys, nil
}
