package crypto

import (
	"encoding/base64"
	"math/big"
)

// b64url encodes a big integer as unpadded base64url, as JWK requires.
func b64url(n *big.Int) string {
	return base64.RawURLEncoding.EncodeToString(n.Bytes())
}

// fromB64url decodes an unpadded base64url JWK integer.
func fromB64url(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
