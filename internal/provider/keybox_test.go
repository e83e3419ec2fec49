package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyBox_RoundTrip(t *testing.T) {
	kb, err := NewKeyBox("provider-secret")
	require.NoError(t, err)

	sealed, err := kb.Seal("sk_test_abc")
	require.NoError(t, err)
	assert.NotContains(t, sealed, "sk_test_abc")

	again, err := kb.Seal("sk_test_abc")
	require.NoError(t, err)
	assert.NotEqual(t, sealed, again, "nonce must differ per seal")

	plain, err := kb.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_abc", plain)
}

func TestKeyBox_WrongSecret(t *testing.T) {
	kb, _ := NewKeyBox("one")
	other, _ := NewKeyBox("two")

	sealed, err := kb.Seal("key")
	require.NoError(t, err)

	_, err = other.Open(sealed)
	assert.ErrorIs(t, err, ErrSealedKey)

	_, err = kb.Open("not base64!")
	assert.ErrorIs(t, err, ErrSealedKey)
}

func TestNewKeyBox_EmptySecret(t *testing.T) {
	_, err := NewKeyBox("")
	assert.ErrorIs(t, err, ErrEmptyKeySecret)
}
