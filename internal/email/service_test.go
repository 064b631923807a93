package email

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisabledService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService("", "no-reply@expotrade.events", false, zerolog.Nop())
	require.NoError(t, err)
	return svc
}

func TestNewService_EnabledValidatesSender(t *testing.T) {
	_, err := NewService("re_key", "not-an-address", true, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sender")
}

func TestSendInvitation_DisabledReturnsNil(t *testing.T) {
	svc := newDisabledService(t)
	err := svc.SendInvitation(context.Background(), "new@example.com", "Jordan", "https://expotrade.events/create-password?token=abc")
	assert.NoError(t, err)
}

func TestSendInvitation_RejectsBadRecipient(t *testing.T) {
	svc := newDisabledService(t)
	err := svc.SendInvitation(context.Background(), "not-an-address", "Jordan", "https://expotrade.events/create-password?token=abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient")
}

func TestSendInvitation_RejectsUnsafeLink(t *testing.T) {
	svc := newDisabledService(t)

	err := svc.SendInvitation(context.Background(), "new@example.com", "Jordan", "javascript:alert(1)")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup link")

	err = svc.SendInvitation(context.Background(), "new@example.com", "Jordan", "https://")
	require.Error(t, err)
}

func TestSendOTP_DisabledReturnsNil(t *testing.T) {
	svc := newDisabledService(t)
	assert.NoError(t, svc.SendOTP(context.Background(), "new@example.com", "123456"))
}

func TestSendOTP_RejectsBadRecipient(t *testing.T) {
	svc := newDisabledService(t)
	assert.Error(t, svc.SendOTP(context.Background(), "nope", "123456"))
}
