package crypto

import (
	"bytes"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"slices"

	"sigil/internal/domain"
)

const (
	jwkKeyType   = "RSA"
	jwkAlgorithm = "PS256"
)

// JWK is the portable form of an identity key (RFC 7517, RSA members only).
type JWK struct {
	Kty    string   `json:"kty"`
	Alg    string   `json:"alg,omitempty"`
	Ext    *bool    `json:"ext,omitempty"`
	KeyOps []string `json:"key_ops,omitempty"`
	N      string   `json:"n"`
	E      string   `json:"e"`

	D  string `json:"d,omitempty"`
	P  string `json:"p,omitempty"`
	Q  string `json:"q,omitempty"`
	DP string `json:"dp,omitempty"`
	DQ string `json:"dq,omitempty"`
	QI string `json:"qi,omitempty"`
}

// IsPrivate reports whether the JWK carries private members.
func (j JWK) IsPrivate() bool {
	return j.D != "" || j.P != "" || j.Q != "" || j.DP != "" || j.DQ != "" || j.QI != ""
}

func publicJWK(pub *rsa.PublicKey) JWK {
	ext := true
	return JWK{
		Kty:    jwkKeyType,
		Alg:    jwkAlgorithm,
		Ext:    &ext,
		KeyOps: []string{domain.UsageVerify.String()},
		N:      b64url(pub.N),
		E:      b64url(big.NewInt(int64(pub.E))),
	}
}

// MarshalPublicJWK exports the public half of key, marked verify-only.
func MarshalPublicJWK(key domain.SigningKey) (JWK, error) {
	if key.Public == nil {
		return JWK{}, domain.E(domain.ErrInvalidKey, "marshal public jwk", errors.New("no public key"))
	}
	return publicJWK(key.Public), nil
}

// MarshalPrivateJWK exports a sign key including its private members,
// marked sign-only. It is meant for the local keystore only.
func MarshalPrivateJWK(key domain.SigningKey) (JWK, error) {
	if err := requireUsage(key, domain.UsageSign); err != nil {
		return JWK{}, err
	}
	priv := key.Private
	if len(priv.Primes) != 2 {
		return JWK{}, domain.E(domain.ErrInvalidKey, "marshal private jwk",
			fmt.Errorf("want 2 primes, got %d", len(priv.Primes)))
	}
	priv.Precompute()

	j := publicJWK(&priv.PublicKey)
	j.KeyOps = []string{domain.UsageSign.String()}
	j.D = b64url(priv.D)
	j.P = b64url(priv.Primes[0])
	j.Q = b64url(priv.Primes[1])
	j.DP = b64url(priv.Precomputed.Dp)
	j.DQ = b64url(priv.Precomputed.Dq)
	j.QI = b64url(priv.Precomputed.Qinv)
	return j, nil
}

// ParseJWK strictly decodes data (unknown members are rejected) and builds a
// key restricted to usage.
func ParseJWK(data []byte, usage domain.KeyUsage) (domain.SigningKey, error) {
	var j JWK
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&j); err != nil {
		return domain.SigningKey{}, domain.E(domain.ErrInvalidKey, "parse jwk", err)
	}
	if dec.More() {
		return domain.SigningKey{}, domain.E(domain.ErrInvalidKey, "parse jwk", errors.New("trailing data"))
	}
	return KeyFromJWK(j, usage)
}

// KeyFromJWK builds a key restricted to usage. A JWK whose key_ops do not
// allow usage, or a sign request without private members, fails with
// ErrKeyUsage.
func KeyFromJWK(j JWK, usage domain.KeyUsage) (domain.SigningKey, error) {
	const op = "import jwk"
	if j.Kty != jwkKeyType {
		return domain.SigningKey{}, domain.E(domain.ErrInvalidKey, op, fmt.Errorf("unsupported kty %q", j.Kty))
	}
	if j.Alg != "" && j.Alg != jwkAlgorithm {
		return domain.SigningKey{}, domain.E(domain.ErrInvalidKey, op, fmt.Errorf("unsupported alg %q", j.Alg))
	}
	if usage != domain.UsageSign && usage != domain.UsageVerify {
		return domain.SigningKey{}, domain.E(domain.ErrKeyUsage, op, fmt.Errorf("unknown usage %q", usage))
	}
	if len(j.KeyOps) > 0 && !slices.Contains(j.KeyOps, usage.String()) {
		return domain.SigningKey{}, domain.E(domain.ErrKeyUsage, op,
			fmt.Errorf("key_ops %v do not allow %q", j.KeyOps, usage))
	}

	pub, err := publicFromJWK(j)
	if err != nil {
		return domain.SigningKey{}, domain.E(domain.ErrInvalidKey, op, err)
	}
	if usage == domain.UsageVerify {
		return domain.SigningKey{Usage: domain.UsageVerify, Public: pub}, nil
	}

	if j.D == "" || j.P == "" || j.Q == "" {
		return domain.SigningKey{}, domain.E(domain.ErrKeyUsage, op, errors.New("sign usage needs private members"))
	}
	priv, err := privateFromJWK(j, pub)
	if err != nil {
		return domain.SigningKey{}, domain.E(domain.ErrInvalidKey, op, err)
	}
	return domain.SigningKey{Usage: domain.UsageSign, Private: priv, Public: &priv.PublicKey}, nil
}

func publicFromJWK(j JWK) (*rsa.PublicKey, error) {
	n, err := fromB64url(j.N)
	if err != nil {
		return nil, fmt.Errorf("decode n: %w", err)
	}
	e, err := fromB64url(j.E)
	if err != nil {
		return nil, fmt.Errorf("decode e: %w", err)
	}
	if bits := n.BitLen(); bits < MinKeyBits || bits > MaxKeyBits {
		return nil, fmt.Errorf("modulus size %d outside [%d, %d]", bits, MinKeyBits, MaxKeyBits)
	}
	if !e.IsInt64() || e.Int64() < 3 || e.Int64() > 1<<31-1 {
		return nil, errors.New("unsupported public exponent")
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func privateFromJWK(j JWK, pub *rsa.PublicKey) (*rsa.PrivateKey, error) {
	ints := make([]*big.Int, 3)
	for i, s := range []string{j.D, j.P, j.Q} {
		v, err := fromB64url(s)
		if err != nil {
			return nil, fmt.Errorf("decode private member: %w", err)
		}
		ints[i] = v
	}
	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         ints[0],
		Primes:    []*big.Int{ints[1], ints[2]},
	}
	if err := priv.Validate(); err != nil {
		return nil, err
	}
	priv.Precompute()
	return priv, nil
}
