package envelope

import (
	"encoding/base64"
	"fmt"

	"sigil/internal/crypto"
	"sigil/internal/domain"
)

// Fields holds the transport encodings of an envelope's binary members.
type Fields struct {
	IV            string
	EncryptedData string
	Signature     string
}

var b64 = base64.StdEncoding.Strict()

// Encode base64-encodes each binary field independently.
func Encode(nonce, ciphertext, signature []byte) Fields {
	return Fields{
		IV:            b64.EncodeToString(nonce),
		EncryptedData: b64.EncodeToString(ciphertext),
		Signature:     b64.EncodeToString(signature),
	}
}

// Decode reverses Encode and checks every length: the nonce must match the
// AEAD nonce size, the ciphertext must at least hold the tag and the
// signature must fit an accepted RSA modulus.
func Decode(f Fields) (nonce, ciphertext, signature []byte, err error) {
	if nonce, err = decodeField("iv", f.IV); err != nil {
		return nil, nil, nil, err
	}
	if ciphertext, err = decodeField("encryptedData", f.EncryptedData); err != nil {
		return nil, nil, nil, err
	}
	if signature, err = decodeField("signature", f.Signature); err != nil {
		return nil, nil, nil, err
	}
	if err := checkLengths(nonce, ciphertext, signature); err != nil {
		return nil, nil, nil, err
	}
	return nonce, ciphertext, signature, nil
}

func decodeField(name, s string) ([]byte, error) {
	b, err := b64.DecodeString(s)
	if err != nil {
		return nil, domain.E(domain.ErrMalformedEnvelope, "decode "+name, err)
	}
	return b, nil
}

func checkLengths(nonce, ciphertext, signature []byte) error {
	switch {
	case len(nonce) != crypto.NonceSize:
		return domain.E(domain.ErrMalformedEnvelope, "decode iv",
			fmt.Errorf("got %d bytes, want %d", len(nonce), crypto.NonceSize))
	case len(ciphertext) < crypto.TagSize:
		return domain.E(domain.ErrMalformedEnvelope, "decode encryptedData",
			fmt.Errorf("got %d bytes, need at least %d", len(ciphertext), crypto.TagSize))
	case len(signature) < crypto.MinSignatureSize || len(signature) > crypto.MaxSignatureSize:
		return domain.E(domain.ErrMalformedEnvelope, "decode signature",
			fmt.Errorf("got %d bytes, want %d..%d", len(signature), crypto.MinSignatureSize, crypto.MaxSignatureSize))
	}
	return nil
}
