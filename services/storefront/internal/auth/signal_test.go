package auth

import (
	"testing"

	"github.com/sakashimaa/storefront/services/storefront/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestSignal_NotifiesInRegistrationOrder(t *testing.T) {
	sig := NewSignal(domain.Anonymous())

	var calls []string
	initial, _ := sig.Subscribe(func(prev, next domain.Session) {
		calls = append(calls, "first:"+next.UserID)
	})
	require.False(t, initial.IsAuthenticated)

	sig.Subscribe(func(prev, next domain.Session) {
		require.False(t, prev.IsAuthenticated)
		calls = append(calls, "second:"+next.UserID)
	})

	sig.Set(domain.Session{IsAuthenticated: true, UserID: "7"})

	require.Equal(t, []string{"first:7", "second:7"}, calls)
	require.Equal(t, "7", sig.Current().UserID)
}

func TestSignal_Unsubscribe(t *testing.T) {
	sig := NewSignal(domain.Anonymous())

	var count int
	_, cancel := sig.Subscribe(func(prev, next domain.Session) {
		count++
	})

	sig.Set(domain.Session{IsAuthenticated: true, UserID: "1"})
	cancel()
	cancel()
	sig.Set(domain.Anonymous())

	require.Equal(t, 1, count)
}
