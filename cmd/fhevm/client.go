// Copyright (C) 2025, Lux Industries, Inc.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/geth/rpc"
	"github.com/luxfi/geth/signer/core/apitypes"
	"github.com/luxfi/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/luxfi/fhevm"
	"github.com/luxfi/fhevm/gateway"
	"github.com/luxfi/fhevm/signer"
)

// envPrefix namespaces client environment variables, e.g. FHEVM_PRIVATE_KEY
const envPrefix = "FHEVM"

const (
	networkKey    = "network"
	gatewayURLKey = "gateway-url"
	chainIDKey    = "chain-id"
	publicKeyKey  = "public-key"
	fetchKeyKey   = "fetch-key"
	privateKeyKey = "private-key"
	walletRPCKey  = "wallet-rpc"
	typeKey       = "type"
	contractKey   = "contract"
	userKey       = "user"
	registerKey   = "register"
	allowKey      = "allow"
	signatureKey  = "signature"
	addressKey    = "address"
)

var errMissingPrivateKey = errors.New("a signer is required, set --private-key, FHEVM_PRIVATE_KEY or --wallet-rpc")

func init() {
	addClientFlags(encryptCmd.Flags())
	encryptCmd.Flags().String(typeKey, fhevm.Uint64.String(), "Encryption type, e.g. bool, uint8, address, bytes256")
	encryptCmd.Flags().Bool(registerKey, false, "Register the input proof with the gateway")
	encryptCmd.Flags().StringSlice(allowKey, nil, "Accounts allowed to reencrypt a registered input")

	addClientFlags(decryptCmd.Flags())
	addSignerFlags(decryptCmd.Flags())
	decryptCmd.Flags().String(typeKey, "", "Interpret decrypted values as this type")

	addClientFlags(permitCmd.Flags())
	addSignerFlags(permitCmd.Flags())

	verifyCmd.Flags().String(signatureKey, "", "0x-prefixed personal-sign signature")
	verifyCmd.Flags().String(publicKeyKey, "", "0x-prefixed signed public key")
	verifyCmd.Flags().String(addressKey, "", "Expected signer address")
}

func addClientFlags(fs *pflag.FlagSet) {
	fs.String(networkKey, fhevm.DefaultNetwork, "Network name, sepolia or localhost")
	fs.String(gatewayURLKey, "", "Gateway URL override")
	fs.Uint64(chainIDKey, 0, "Chain id override")
	fs.String(publicKeyKey, "", "0x-prefixed engine public key. A keypair is generated when empty")
	fs.Bool(fetchKeyKey, false, "Fetch the network public key from the gateway")
}

func addSignerFlags(fs *pflag.FlagSet) {
	fs.String(privateKeyKey, "", "Hex private key of the requesting account")
	fs.String(walletRPCKey, "", "JSON-RPC endpoint of a wallet signing for the requesting account")
	fs.String(contractKey, "", "Contract holding the ciphertexts")
	fs.String(userKey, "", "Account requesting reencryption. Defaults to the signer")
}

// buildViper binds the command flags and their FHEVM_ environment variables
func buildViper(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	return v, nil
}

func newInstance(ctx context.Context, v *viper.Viper) (*fhevm.Instance, error) {
	cfg := fhevm.Config{
		Network:    v.GetString(networkKey),
		GatewayURL: v.GetString(gatewayURLKey),
		ChainID:    v.GetUint64(chainIDKey),
	}
	switch {
	case v.GetString(publicKeyKey) != "":
		pk, err := hexutil.Decode(v.GetString(publicKeyKey))
		if err != nil {
			return nil, fmt.Errorf("invalid public key: %w", err)
		}
		cfg.PublicKey = pk
	case v.GetBool(fetchKeyKey):
		network, _, err := cfg.Resolve()
		if err != nil {
			return nil, err
		}
		keys, err := gateway.NewClient(network.GatewayURL).Keys(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch network public key: %w", err)
		}
		pk, err := hexutil.Decode(keys.PublicKey)
		if err != nil {
			return nil, fmt.Errorf("gateway returned an invalid public key: %w", err)
		}
		cfg.PublicKey = pk
	}
	return fhevm.CreateInstance(ctx, cfg, fhevm.WithLogger(log.Root()))
}

// newSigner prefers a local private key over a remote wallet. The remote
// wallet signs with its first account unless --user names one.
func newSigner(ctx context.Context, v *viper.Viper, inst *fhevm.Instance) (signer.Signer, error) {
	if key := v.GetString(privateKeyKey); key != "" {
		return signer.NewLocalSignerFromHex(key, inst.ChainID())
	}
	endpoint := v.GetString(walletRPCKey)
	if endpoint == "" {
		return nil, errMissingPrivateKey
	}
	client, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet: %w", err)
	}
	var account common.Address
	if user := v.GetString(userKey); user != "" {
		if !common.IsHexAddress(user) {
			return nil, fmt.Errorf("invalid user address %q", user)
		}
		account = common.HexToAddress(user)
	}
	return signer.NewRemoteSigner(ctx, client, account)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "List the known networks",
	Args:  cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tCHAIN ID\tGATEWAY\tKMS CONTRACT\tACL CONTRACT")
		for _, n := range fhevm.Networks() {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", n.Name, n.ChainID, n.GatewayURL, n.KMSContractAddress, n.ACLContractAddress)
		}
		return w.Flush()
	},
}

type encryptOutput struct {
	Handles    []string      `json:"handles"`
	InputProof string        `json:"inputProof"`
	Data       hexutil.Bytes `json:"data"`
}

var encryptCmd = &cobra.Command{
	Use:   "encrypt VALUE",
	Short: "Encrypt a plaintext value",
	Long: `Encrypt a plaintext value and print its handles and input proof.

Integers are decimal or 0x-prefixed hex. Bytes are 0x-prefixed hex or a
plain string.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildViper(cmd)
		if err != nil {
			return err
		}
		t, err := fhevm.ParseEncryptionType(v.GetString(typeKey))
		if err != nil {
			return err
		}
		value, err := parseValue(args[0], t)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		inst, err := newInstance(ctx, v)
		if err != nil {
			return err
		}
		ev, err := fhevm.EncryptValue(ctx, inst, value, t)
		if err != nil {
			return err
		}

		if v.GetBool(registerKey) {
			allowed := v.GetStringSlice(allowKey)
			if len(allowed) == 0 {
				return fmt.Errorf("--%s requires at least one --%s account", registerKey, allowKey)
			}
			_, err := gateway.NewClient(inst.GatewayURL()).RegisterInput(ctx, &gateway.InputsRequest{
				InputProof: ev.InputProof,
				Allowed:    allowed,
			})
			if err != nil {
				return fmt.Errorf("failed to register input: %w", err)
			}
		}
		return printJSON(encryptOutput{
			Handles:    ev.Handles,
			InputProof: ev.InputProof,
			Data:       ev.Data,
		})
	},
}

// parseValue reads a command line value for t
func parseValue(s string, t fhevm.EncryptionType) (any, error) {
	switch t {
	case fhevm.Bool:
		return strconv.ParseBool(s)
	case fhevm.Bytes, fhevm.Bytes256:
		if strings.HasPrefix(s, "0x") {
			return hexutil.Decode(s)
		}
		return []byte(s), nil
	default:
		return s, nil
	}
}

var decryptCmd = &cobra.Command{
	Use:   "decrypt HANDLE...",
	Short: "Decrypt handles through the gateway",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := buildViper(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		inst, err := newInstance(ctx, v)
		if err != nil {
			return err
		}
		s, err := newSigner(ctx, v, inst)
		if err != nil {
			return err
		}

		handles := make([]any, len(args))
		for i, arg := range args {
			handles[i] = arg
		}
		results, err := fhevm.DecryptBatch(ctx, inst, handles, fhevm.DecryptOptions{
			ContractAddress: v.GetString(contractKey),
			UserAddress:     v.GetString(userKey),
			Signer:          s,
		})
		if err != nil {
			return err
		}

		typeName := v.GetString(typeKey)
		var t fhevm.EncryptionType
		if typeName != "" {
			t, err = fhevm.ParseEncryptionType(typeName)
			if err != nil {
				return err
			}
		}
		for i, res := range results {
			if typeName == "" {
				fmt.Printf("%s\t%s\n", args[i], res.Value)
				continue
			}
			out, err := res.Interpret(t)
			if err != nil {
				return err
			}
			if b, ok := out.([]byte); ok {
				out = hexutil.Encode(b)
			}
			fmt.Printf("%s\t%v\n", args[i], out)
		}
		return nil
	},
}

type permitOutput struct {
	TypedData apitypes.TypedData `json:"typedData"`
	Signature hexutil.Bytes      `json:"signature"`
	PublicKey hexutil.Bytes      `json:"publicKey"`
}

var permitCmd = &cobra.Command{
	Use:   "permit",
	Short: "Sign a reencryption permit for a contract",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v, err := buildViper(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		inst, err := newInstance(ctx, v)
		if err != nil {
			return err
		}
		s, err := newSigner(ctx, v, inst)
		if err != nil {
			return err
		}
		user := v.GetString(userKey)
		if user == "" {
			user = s.Address().Hex()
		}

		permit, err := fhevm.CreateReencryptionPermit(ctx, inst, v.GetString(contractKey), user, s)
		if err != nil {
			return err
		}
		return printJSON(permitOutput{
			TypedData: permit.TypedData,
			Signature: permit.Signature,
			PublicKey: permit.PublicKey,
		})
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify a personal-sign signature over a public key",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fs := cmd.Flags()
		sigHex, _ := fs.GetString(signatureKey)
		pkHex, _ := fs.GetString(publicKeyKey)
		address, _ := fs.GetString(addressKey)

		sig, err := hexutil.Decode(sigHex)
		if err != nil {
			return fmt.Errorf("invalid signature: %w", err)
		}
		pk, err := hexutil.Decode(pkHex)
		if err != nil {
			return fmt.Errorf("invalid public key: %w", err)
		}
		if !common.IsHexAddress(address) {
			return fmt.Errorf("invalid address %q", address)
		}
		if !fhevm.VerifyDecryptSignature(sig, pk, address) {
			return fmt.Errorf("signature was not produced by %s", address)
		}
		fmt.Println("valid")
		return nil
	},
}
