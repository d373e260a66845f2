package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orderdesk/message-gateway/internal/config"
	"github.com/orderdesk/message-gateway/internal/core"
)

func TestValidatePhoneNumber(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+1 (555) 123-4567", "15551234567", false},
		{"15551234567", "15551234567", false},
		{"+49 151 1234", "491511234", false},
		{"7", "7", false},
		{"123456789012345", "123456789012345", false},
		{"1234567890123456", "", true}, // 16 digits
		{"", "", true},
		{"+", "", true},
		{"abc", "", true},
		{"++1 555", "", true}, // inner plus survives cleaning
	}
	for _, tc := range cases {
		got, err := ValidatePhoneNumber(tc.in)
		if tc.wantErr {
			require.ErrorIs(t, err, core.ErrInvalidRecipient, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestFactory_ClosedSet(t *testing.T) {
	cfg := &config.Config{}

	for _, typ := range []core.ProviderType{core.ProviderWhatsApp, core.ProviderLine, core.ProviderTelegram} {
		p, err := New(typ, cfg, Deps{})
		require.NoError(t, err)
		require.NotNil(t, p)
	}

	_, err := New(core.ProviderKakao, cfg, Deps{})
	require.ErrorIs(t, err, core.ErrUnsupportedProviderType)

	_, err = New("sms", cfg, Deps{})
	require.ErrorIs(t, err, core.ErrUnsupportedProviderType)
}

func TestKakao_NotImplemented(t *testing.T) {
	resp := NewKakao().SendMessage(context.Background(), "123", core.MessageContent{Type: core.TypeText, Body: "hi"}, nil)
	require.False(t, resp.Success)
	require.Equal(t, 501, resp.StatusCode)
	require.Contains(t, resp.Error, "not_implemented")
}
