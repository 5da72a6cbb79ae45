package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"
)

func TestClientReencrypt(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedValue int64
		expectedErr   error
		expectedCode  int
	}{
		{
			name:          "decimal string value",
			status:        http.StatusOK,
			body:          `{"value":"42","extra":"kept"}`,
			expectedValue: 42,
		},
		{
			name:          "numeric value",
			status:        http.StatusOK,
			body:          `{"value":7}`,
			expectedValue: 7,
		},
		{
			name:          "hex value",
			status:        http.StatusOK,
			body:          `{"value":"0x10"}`,
			expectedValue: 16,
		},
		{
			name:          "leading zeros are decimal",
			status:        http.StatusOK,
			body:          `{"value":"010"}`,
			expectedValue: 10,
		},
		{
			name:        "binary literal",
			status:      http.StatusOK,
			body:        `{"value":"0b101"}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "underscore separated",
			status:      http.StatusOK,
			body:        `{"value":"1_000"}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "negative value",
			status:      http.StatusOK,
			body:        `{"value":"-5"}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "missing value",
			status:      http.StatusOK,
			body:        `{}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "garbage value",
			status:      http.StatusOK,
			body:        `{"value":"forty-two"}`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:        "not json",
			status:      http.StatusOK,
			body:        `<html>`,
			expectedErr: ErrMalformedResponse,
		},
		{
			name:         "server error",
			status:       http.StatusInternalServerError,
			body:         `{"error":"boom"}`,
			expectedCode: http.StatusInternalServerError,
		},
		{
			name:         "forbidden",
			status:       http.StatusForbidden,
			body:         ``,
			expectedCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			var received ReencryptRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				require.Equal(http.MethodPost, r.Method)
				require.Equal(ReencryptPath, r.URL.Path)
				require.Equal("application/json", r.Header.Get("Content-Type"))
				require.Equal("req-1", r.Header.Get(RequestIDHeader))
				require.NoError(json.NewDecoder(r.Body).Decode(&received))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient(srv.URL + "/")
			req := &ReencryptRequest{
				Handle:          "123",
				PublicKey:       "0x01",
				Signature:       "0x02",
				ContractAddress: "0x0000000000000000000000000000000000000003",
			}
			resp, err := client.Reencrypt(context.Background(), req, "req-1")
			require.Equal(*req, received)

			if tt.expectedCode != 0 {
				var statusErr *StatusError
				require.ErrorAs(err, &statusErr)
				require.Equal(tt.expectedCode, statusErr.StatusCode)
				return
			}
			require.ErrorIs(err, tt.expectedErr)
			if tt.expectedErr != nil {
				return
			}
			require.Equal(tt.expectedValue, resp.Value.Int64())
			require.Contains(resp.Raw, "value")
		})
	}
}

func TestClientReencryptSignature(t *testing.T) {
	tests := []struct {
		name              string
		body              string
		expectedSignature []byte
	}{
		{
			name:              "hex signature",
			body:              `{"value":"42","signature":"0x0102"}`,
			expectedSignature: []byte{0x01, 0x02},
		},
		{
			name: "base64 signature",
			body: `{"value":"42","signature":"c2lnbmF0dXJl"}`,
		},
		{
			name: "non-string signature",
			body: `{"value":"42","signature":{"r":"0x01"}}`,
		},
		{
			name: "no signature",
			body: `{"value":"42"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewClient(srv.URL).Reencrypt(context.Background(), &ReencryptRequest{}, "")
			require.NoError(err)
			require.Equal(int64(42), resp.Value.Int64())
			require.Equal(tt.expectedSignature, resp.Signature)

			var raw map[string]any
			require.NoError(json.Unmarshal([]byte(tt.body), &raw))
			require.Equal(raw["signature"], resp.Raw["signature"])
		})
	}
}

func TestClientStatusErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(log.NewNoOpLogger(), w, http.StatusForbidden, "Account is not allowed")
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Reencrypt(context.Background(), &ReencryptRequest{}, "")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, "Account is not allowed", statusErr.Message)
	require.Contains(t, statusErr.Error(), "403")
}

func TestClientTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, WithTimeout(50*time.Millisecond))
	_, err := client.Reencrypt(context.Background(), &ReencryptRequest{}, "")
	require.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
}

func TestClientKeys(t *testing.T) {
	require := require.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(http.MethodGet, r.Method)
		require.Equal(KeysPath, r.URL.Path)
		_, _ = w.Write([]byte(`{"publicKey":"0xabcd","chainId":"31337"}`))
	}))
	defer srv.Close()

	keys, err := NewClient(srv.URL).Keys(context.Background())
	require.NoError(err)
	require.Equal("0xabcd", keys.PublicKey)
	require.Equal("31337", keys.ChainID)
}
