package momo

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		header     http.Header
		wantRef    string
		wantExt    string
		wantStatus string
		wantReason string
		wantErr    bool
	}{
		{
			name:       "reference in body",
			body:       `{"referenceId":"ref-1","externalId":"ext-1","status":"SUCCESSFUL"}`,
			wantRef:    "ref-1",
			wantExt:    "ext-1",
			wantStatus: "SUCCESSFUL",
		},
		{
			name:       "reference in header only",
			body:       `{"externalId":"ext-1","status":"successful"}`,
			header:     http.Header{HeaderReferenceID: []string{"ref-h"}},
			wantRef:    "ref-h",
			wantExt:    "ext-1",
			wantStatus: "SUCCESSFUL",
		},
		{
			name:       "external id only with string reason",
			body:       `{"financialTransactionId":"1","externalId":"ext-2","status":"FAILED","reason":"INTERNAL_PROCESSING_ERROR"}`,
			wantExt:    "ext-2",
			wantStatus: "FAILED",
			wantReason: "INTERNAL_PROCESSING_ERROR",
		},
		{
			name:       "object reason",
			body:       `{"externalId":"ext-3","status":"FAILED","reason":{"code":"PAYER_LIMIT_REACHED","message":"limit"}}`,
			wantExt:    "ext-3",
			wantStatus: "FAILED",
			wantReason: "PAYER_LIMIT_REACHED: limit",
		},
		{
			name:    "invalid json",
			body:    `{"status":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := ParseCallback([]byte(tt.body), tt.header)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, cb.ReferenceID)
			assert.Equal(t, tt.wantExt, cb.ExternalID)
			assert.Equal(t, tt.wantStatus, cb.Status)
			assert.Equal(t, tt.wantReason, cb.ReasonText())
			assert.Equal(t, tt.body, string(cb.Raw))
		})
	}
}
