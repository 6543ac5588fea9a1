package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrylevesque/convoportal/internal/wizard"
)

func TestStateCodecRoundTrip(t *testing.T) {
	c, err := NewStateCodec([]byte(testCookieSecret), time.Hour)
	require.NoError(t, err)

	s := wizard.ChangePlan().Start("00:11:22", "sub-1")
	s.Action = wizard.ActionDowngrade
	s.Reason = wizard.OtherReason
	s.OtherReason = "moving on"

	sealed, err := c.Encode(s)
	require.NoError(t, err)
	assert.NotContains(t, sealed, "moving on")

	got, err := c.Decode(sealed)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestStateCodecRejects(t *testing.T) {
	c, err := NewStateCodec([]byte(testCookieSecret), time.Hour)
	require.NoError(t, err)
	other, err := NewStateCodec([]byte("another secret of at least 32 bytes!"), time.Hour)
	require.NoError(t, err)

	sealed, err := c.Encode(wizard.Unsubscribe().Start("tok", ""))
	require.NoError(t, err)

	_, err = other.Decode(sealed)
	assert.ErrorIs(t, err, ErrStaleState)

	_, err = c.Decode("")
	assert.ErrorIs(t, err, ErrStaleState)

	tampered := []byte(sealed)
	tampered[len(tampered)/2] ^= 1
	_, err = c.Decode(string(tampered))
	assert.ErrorIs(t, err, ErrStaleState)
}
