package kraken

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"

	"github.com/dwbumstead/openat/models"
)

// sign computes the API-Sign header value for a private request:
//
//	base64(HMAC-SHA512(path || SHA256(nonce || body), base64decode(secret)))
//
// It is a pure function of its inputs.
func sign(path string, nonce string, body string, secret string) (string, error) {
	key, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return "", &models.CredentialError{Reason: "api secret is not valid base64"}
	}
	digest := sha256.Sum256([]byte(nonce + body))
	mac := hmac.New(sha512.New, key)
	mac.Write([]byte(path))
	mac.Write(digest[:])
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}
