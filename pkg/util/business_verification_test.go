package util

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessVerifier_DevelopmentMode(t *testing.T) {
	verifier := NewBusinessVerifier("", "")

	result, err := verifier.Verify(context.Background(), "1111111111", "20200101", "홍길동")
	require.NoError(t, err)
	assert.True(t, result.IsValid)
}

func TestBusinessVerifier_Verify(t *testing.T) {
	tests := []struct {
		name       string
		valid      string
		statusCode string
		wantValid  bool
		wantMsg    string
	}{
		{name: "active business", valid: "01", statusCode: "01", wantValid: true},
		{name: "suspended business", valid: "01", statusCode: "02", wantValid: false, wantMsg: "휴업 중인 사업자입니다"},
		{name: "closed business", valid: "01", statusCode: "03", wantValid: false, wantMsg: "폐업한 사업자입니다"},
		{name: "mismatched info", valid: "02", statusCode: "01", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/validate", r.URL.Path)
				assert.Equal(t, "test-key", r.URL.Query().Get("serviceKey"))

				var body map[string][]BusinessVerificationRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				require.Len(t, body["businesses"], 1)
				assert.Equal(t, "1111111111", body["businesses"][0].BusinessNumber)

				json.NewEncoder(w).Encode(BusinessVerificationResponse{
					RequestCount: 1,
					StatusCode:   "OK",
					Data: []BusinessVerificationData{{
						BusinessNumber: "1111111111",
						Valid:          tt.valid,
						Status:         &BusinessStatus{BusinessStatusCode: tt.statusCode},
					}},
				})
			}))
			defer server.Close()

			verifier := NewBusinessVerifier("test-key", server.URL)
			result, err := verifier.Verify(context.Background(), "1111111111", "20200101", "홍길동")
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, result.IsValid)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, result.Message)
			}
		})
	}
}

func TestBusinessVerifier_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	verifier := NewBusinessVerifier("test-key", server.URL)
	_, err := verifier.Verify(context.Background(), "1111111111", "", "")
	assert.Error(t, err)
}
