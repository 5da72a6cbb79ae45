// Copyright (C) 2024-2025, Lux Industries Inc All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/common/hexutil"
	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/luxfi/fhevm/eip712"
	"github.com/luxfi/fhevm/engine"
)

const maxRequestSize = 8 << 20

var errMissingChainID = errors.New("gateway chain id not set")

// Decrypter recovers the plaintext behind a stored ciphertext
type Decrypter interface {
	Decrypt(ciphertext []byte) (engine.FheType, *big.Int, error)
}

type ServerConfig struct {
	ChainID   *big.Int
	PublicKey []byte
	Decrypter Decrypter
	Store     Store
	ACL       *ACL

	// KMS signs responses when set
	KMS *KMSSigner

	Registry *prometheus.Registry
	Log      log.Logger
}

// Server is a development gateway. It authorizes reencryption requests the
// same way a production gateway does but decrypts with a locally held
// network key.
type Server struct {
	chainID   *big.Int
	publicKey []byte
	decrypter Decrypter
	store     Store
	acl       *ACL
	kms       *KMSSigner
	registry  *prometheus.Registry
	metrics   *Metrics
	log       log.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.ChainID == nil || cfg.ChainID.Sign() <= 0 {
		return nil, errMissingChainID
	}
	if cfg.Decrypter == nil || cfg.Store == nil {
		return nil, errors.New("gateway requires a decrypter and a store")
	}
	if cfg.ACL == nil {
		cfg.ACL = NewACL()
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	if cfg.Log == nil {
		cfg.Log = log.NewNoOpLogger()
	}
	return &Server{
		chainID:   new(big.Int).Set(cfg.ChainID),
		publicKey: cfg.PublicKey,
		decrypter: cfg.Decrypter,
		store:     cfg.Store,
		acl:       cfg.ACL,
		kms:       cfg.KMS,
		registry:  cfg.Registry,
		metrics:   NewMetrics(cfg.Registry),
		log:       cfg.Log,
	}, nil
}

// Handler returns the gateway's HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST "+ReencryptPath, s.instrument(ReencryptPath, http.HandlerFunc(s.handleReencrypt)))
	mux.Handle("POST "+InputsPath, s.instrument(InputsPath, http.HandlerFunc(s.handleInputs)))
	mux.Handle("GET "+KeysPath, s.instrument(KeysPath, http.HandlerFunc(s.handleKeys)))
	mux.Handle(HealthPath, health.NewHandler(health.NewChecker(
		health.WithCheck(health.Check{
			Name:  "fhevm-gateway-store",
			Check: s.checkStore,
		}),
	)))
	mux.Handle(MetricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// RegisterInput stores the ciphertext of an input proof under each of its
// handles and grants the allowed accounts access to them
func (s *Server) RegisterInput(proof []byte, allowed []common.Address) ([]common.Hash, error) {
	handles, ct, err := engine.DecodeInputProof(proof)
	if err != nil {
		return nil, err
	}
	for i, h := range handles {
		if engine.DeriveHandle(ct, engine.HandleType(h), uint8(i)) != h {
			return nil, fmt.Errorf("%w: handle %d does not match ciphertext", engine.ErrInvalidInputProof, i)
		}
	}
	for _, h := range handles {
		if err := s.store.Put(h, ct); err != nil {
			return nil, err
		}
		s.acl.Allow(h, allowed...)
	}
	s.metrics.registeredInputCount.Add(float64(len(handles)))
	return handles, nil
}

func (s *Server) checkStore(context.Context) error {
	_, err := s.store.Get(common.Hash{})
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func (s *Server) handleReencrypt(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()
	requestID := r.Header.Get(RequestIDHeader)
	logger := s.log

	var req ReencryptRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		msg := "Could not decode request body"
		logger.Warn(msg, log.String("requestID", requestID), log.Err(err))
		s.fail(logger, w, http.StatusBadRequest, "decode", msg)
		return
	}

	handle, err := uint256.FromDecimal(req.Handle)
	if err != nil {
		msg := "Could not parse handle"
		logger.Warn(msg, log.String("requestID", requestID), log.String("handle", req.Handle), log.Err(err))
		s.fail(logger, w, http.StatusBadRequest, "handle", msg)
		return
	}
	publicKey, err := hexutil.Decode(req.PublicKey)
	if err != nil || len(publicKey) == 0 {
		s.fail(logger, w, http.StatusBadRequest, "public_key", "Could not decode public key")
		return
	}
	signature, err := hexutil.Decode(req.Signature)
	if err != nil {
		s.fail(logger, w, http.StatusBadRequest, "signature", "Could not decode signature")
		return
	}
	if !common.IsHexAddress(req.ContractAddress) {
		s.fail(logger, w, http.StatusBadRequest, "contract", "Invalid contract address")
		return
	}
	contract := common.HexToAddress(req.ContractAddress)

	td := eip712.NewReencrypt(s.chainID, contract, publicKey, handle)
	user, err := eip712.Recover(td, signature)
	if err != nil {
		logger.Warn("Could not recover signer", log.String("requestID", requestID), log.Err(err))
		s.fail(logger, w, http.StatusUnauthorized, "signature", "Invalid signature")
		return
	}

	handleHash := common.Hash(handle.Bytes32())
	if !s.acl.IsAllowed(handleHash, user) {
		logger.Warn("Reencryption not allowed",
			log.String("requestID", requestID),
			log.Stringer("user", user),
			log.Stringer("handle", handleHash),
		)
		s.fail(logger, w, http.StatusForbidden, "acl", "Account is not allowed to reencrypt handle")
		return
	}

	ct, err := s.store.Get(handleHash)
	if errors.Is(err, ErrNotFound) {
		s.fail(logger, w, http.StatusNotFound, "not_found", "Unknown handle")
		return
	}
	if err != nil {
		logger.Error("Failed to load ciphertext", log.String("requestID", requestID), log.Err(err))
		s.fail(logger, w, http.StatusInternalServerError, "store", "Failed to load ciphertext")
		return
	}

	_, value, err := s.decrypter.Decrypt(ct)
	if err != nil {
		logger.Error("Failed to decrypt ciphertext", log.String("requestID", requestID), log.Err(err))
		s.fail(logger, w, http.StatusInternalServerError, "decrypt", "Failed to decrypt ciphertext")
		return
	}

	resp := map[string]string{
		"value": value.String(),
	}
	if s.kms != nil {
		sig, err := s.kms.Sign(handleHash, value)
		if err != nil {
			logger.Error("Failed to sign response", log.Err(err))
			s.fail(logger, w, http.StatusInternalServerError, "kms", "Failed to sign response")
			return
		}
		resp["signature"] = hexutil.Encode(sig)
	}

	logger.Debug("Reencrypted handle",
		log.String("requestID", requestID),
		log.Stringer("user", user),
		log.Stringer("contract", contract),
		log.Stringer("handle", handleHash),
	)
	writeJSON(logger, w, http.StatusOK, resp)
	s.metrics.reencryptLatencyMS.Observe(float64(time.Since(startTime).Milliseconds()))
}

func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	var req InputsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestSize)).Decode(&req); err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, "Could not decode request body")
		return
	}
	proof, err := hexutil.Decode(req.InputProof)
	if err != nil {
		writeJSONError(s.log, w, http.StatusBadRequest, "Could not decode input proof")
		return
	}
	allowed := make([]common.Address, 0, len(req.Allowed))
	for _, a := range req.Allowed {
		if !common.IsHexAddress(a) {
			writeJSONError(s.log, w, http.StatusBadRequest, "Invalid allowed address "+strconv.Quote(a))
			return
		}
		allowed = append(allowed, common.HexToAddress(a))
	}

	handles, err := s.RegisterInput(proof, allowed)
	if errors.Is(err, engine.ErrInvalidInputProof) {
		writeJSONError(s.log, w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.log.Error("Failed to register input", log.Err(err))
		writeJSONError(s.log, w, http.StatusInternalServerError, "Failed to register input")
		return
	}

	resp := InputsResponse{Handles: make([]string, len(handles))}
	for i, h := range handles {
		resp.Handles[i] = h.Hex()
	}
	writeJSON(s.log, w, http.StatusOK, resp)
}

func (s *Server) handleKeys(w http.ResponseWriter, _ *http.Request) {
	resp := KeysResponse{
		PublicKey: hexutil.Encode(s.publicKey),
		ChainID:   s.chainID.String(),
	}
	if s.kms != nil {
		resp.KMSPublicKey = hexutil.Encode(s.kms.PublicKey())
	}
	writeJSON(s.log, w, http.StatusOK, resp)
}

func (s *Server) fail(logger log.Logger, w http.ResponseWriter, status int, reason, msg string) {
	s.metrics.failedReencryptCount.WithLabelValues(reason).Inc()
	writeJSONError(logger, w, status, msg)
}

func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.metrics.requestCount.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func writeJSONError(logger log.Logger, w http.ResponseWriter, httpStatusCode int, errorMsg string) {
	writeJSON(logger, w, httpStatusCode, ErrorResponse{Error: errorMsg})
}

func writeJSON(logger log.Logger, w http.ResponseWriter, httpStatusCode int, v any) {
	resp, err := json.Marshal(v)
	if err != nil {
		msg := "Error marshalling JSON response"
		logger.Error(msg, log.Err(err))
		resp = []byte(msg)
		httpStatusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	if _, err := w.Write(resp); err != nil {
		logger.Error("Error writing response", log.Err(err))
	}
}
