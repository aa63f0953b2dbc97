package kraken

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwbumstead/openat/models"
)

func TestSignMatchesDocumentedExample(t *testing.T) {
	t.Parallel()
	// the AddOrder signing example published in the exchange's API docs
	secret := "kQH5HW/8p1uGOVjbgWA7FunAmGO8lsSUXNsu3eow76sz84Q18fWxnyRzBHCd3pd5nE9qa99HAZtuZuj6F1huXg=="
	nonce := "1616492376594"
	body := "nonce=1616492376594&ordertype=limit&pair=XBTUSD&price=37500&type=buy&volume=1.25"

	signature, err := sign("/0/private/AddOrder", nonce, body, secret)
	require.NoError(t, err)
	assert.Equal(t, "4/dpxb3iT4tp/ZCVEwSnEsLxx0bqyhLpdfOpc6fn7OR8+UClSV5n9E6aSS8MPtnRfp32bAb0nmbRn6H8ndwLUQ==", signature)
}

func TestSignEmptyBody(t *testing.T) {
	t.Parallel()
	// secret is base64("s")
	signature, err := sign("/0/private/Balance", "0000000001000000000", "", "cw==")
	require.NoError(t, err)
	assert.Equal(t, "BjaY6f519XAK5MdD6YA7MJ/yY6dLLqp99eXDRkFz6HbLaqvgd5EikTNUnTxfWDkC/n0GHvAamYRM0Hvu3xBUww==", signature)
}

func TestSignIsDeterministic(t *testing.T) {
	t.Parallel()
	first, err := sign("/0/private/Balance", "1616492376594", "nonce=1616492376594", "c2VjcmV0a2V5")
	require.NoError(t, err)
	second, err := sign("/0/private/Balance", "1616492376594", "nonce=1616492376594", "c2VjcmV0a2V5")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestSignRejectsMalformedSecret(t *testing.T) {
	t.Parallel()
	_, err := sign("/0/private/Balance", "1616492376594", "", "%%%not-base64%%%")
	require.Error(t, err)
	var credErr *models.CredentialError
	assert.True(t, errors.As(err, &credErr))
}
