// Copyright (C) 2019-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package fhevm

import (
	"context"
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"

	"github.com/luxfi/fhevm/eip712"
	"github.com/luxfi/fhevm/gateway"
	"github.com/luxfi/fhevm/signer"
)

// DecryptOptions identify the requester of a reencryption
type DecryptOptions struct {
	// ContractAddress is the contract holding the ciphertext
	ContractAddress string

	// UserAddress, when set, must be the address of the signer
	UserAddress string

	// GatewayURL overrides the instance's gateway
	GatewayURL string

	// Signer overrides the instance's default signer
	Signer signer.Signer
}

// DecryptValue authorizes reencryption of handle with an EIP-712 signature
// and performs a single gateway round trip. Results are never cached and
// failed requests are not retried.
func DecryptValue(ctx context.Context, inst *Instance, handle any, opts DecryptOptions) (*DecryptResult, error) {
	if !IsInstanceReady(inst) {
		return nil, ErrNotReady
	}
	h, err := toHandle(handle)
	if err != nil {
		return nil, err
	}
	contract, err := toAddress(opts.ContractAddress)
	if err != nil {
		return nil, fmt.Errorf("contract address: %w", err)
	}
	s, err := requester(inst, opts)
	if err != nil {
		return nil, err
	}
	publicKey, err := GetPublicKey(inst)
	if err != nil {
		return nil, err
	}

	td := eip712.NewReencrypt(inst.ChainID(), contract, publicKey, h)
	sig, err := s.SignTypedData(ctx, td)
	if err != nil {
		return nil, fmt.Errorf("failed to sign reencryption request: %w", err)
	}

	requestID := ids.ID(common.Keccak256Hash(sig)).String()
	client := gateway.NewClient(
		gatewayURL(inst, opts),
		gateway.WithHTTPClient(inst.httpClient),
		gateway.WithTimeout(inst.gatewayTimeout),
		gateway.WithLogger(inst.log),
	)
	req := &gateway.ReencryptRequest{
		Handle:          h.Dec(),
		PublicKey:       hexutil.Encode(publicKey),
		Signature:       hexutil.Encode(sig),
		ContractAddress: contract.Hex(),
	}
	inst.log.Debug("requesting reencryption",
		log.String("requestID", requestID),
		log.String("gateway", client.BaseURL()),
		log.Stringer("contract", contract),
	)
	resp, err := client.Reencrypt(ctx, req, requestID)
	if err != nil {
		inst.log.Warn("reencryption failed",
			log.String("requestID", requestID),
			log.Err(err),
		)
		return nil, gatewayError(err)
	}
	return &DecryptResult{
		Value: resp.Value,
		Raw:   resp.Raw,
	}, nil
}

// DecryptBatch decrypts handles in order and stops at the first failure,
// which is reported as a *BatchError
func DecryptBatch(ctx context.Context, inst *Instance, handles []any, opts DecryptOptions) ([]*DecryptResult, error) {
	if !IsInstanceReady(inst) {
		return nil, ErrNotReady
	}
	out := make([]*DecryptResult, 0, len(handles))
	for i, handle := range handles {
		res, err := DecryptValue(ctx, inst, handle, opts)
		if err != nil {
			return nil, &BatchError{Index: i, Err: err}
		}
		out = append(out, res)
	}
	return out, nil
}

// requester returns the signer of a request, checking it controls
// opts.UserAddress when one is given
func requester(inst *Instance, opts DecryptOptions) (signer.Signer, error) {
	s := opts.Signer
	if s == nil {
		s = inst.signer
	}
	if s == nil {
		return nil, ErrNoSigner
	}
	if opts.UserAddress == "" {
		return s, nil
	}
	user, err := toAddress(opts.UserAddress)
	if err != nil {
		return nil, fmt.Errorf("user address: %w", err)
	}
	if s.Address() != user {
		return nil, fmt.Errorf("%w: signer %s does not control %s", ErrNoSigner, s.Address(), user)
	}
	return s, nil
}

func gatewayURL(inst *Instance, opts DecryptOptions) string {
	switch {
	case opts.GatewayURL != "":
		return opts.GatewayURL
	case inst.network.GatewayURL != "":
		return inst.network.GatewayURL
	default:
		return DefaultGatewayURL
	}
}

func gatewayError(err error) error {
	var statusErr *gateway.StatusError
	if errors.As(err, &statusErr) {
		return &GatewayError{
			StatusCode: statusErr.StatusCode,
			Status:     statusErr.Status,
			Err:        err,
		}
	}
	return &GatewayError{Err: err}
}
