package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCompositeToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		wantID int64
		wantOK bool
	}{
		{
			name:   "full composite token",
			token:  "TX_555123_1699999999000",
			wantID: 555123,
			wantOK: true,
		},
		{
			name:   "truncated token without timestamp",
			token:  "TX_555123",
			wantID: 555123,
			wantOK: true,
		},
		{
			name:   "bare token has no separator",
			token:  "555123",
			wantOK: false,
		},
		{
			name:   "non-numeric account segment",
			token:  "TX_abc_1699999999000",
			wantOK: false,
		},
		{
			name:   "empty token",
			token:  "",
			wantOK: false,
		},
		{
			name:   "negative account id rejected",
			token:  "TX_-5_1699999999000",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseCompositeToken(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}

func TestParseBareToken(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		wantID int64
		wantOK bool
	}{
		{name: "numeric id", token: "555123", wantID: 555123, wantOK: true},
		{name: "composite token rejected", token: "TX_555123_1699999999000", wantOK: false},
		{name: "empty", token: "", wantOK: false},
		{name: "zero rejected", token: "0", wantOK: false},
		{name: "garbage", token: "abc", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := parseBareToken(tt.token)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantID, id)
			}
		})
	}
}
