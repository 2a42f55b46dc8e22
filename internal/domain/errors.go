package domain

import "errors"

// Sentinel error kinds for errors.Is() checks.
var (
	// ErrKeyGeneration is returned when a signing key pair cannot be generated.
	ErrKeyGeneration = errors.New("key generation failed")

	// ErrKeyUsage is returned when a key is used outside its declared usage.
	ErrKeyUsage = errors.New("key used outside its declared usage")

	// ErrInvalidKey is returned when serialized key material cannot be parsed.
	ErrInvalidKey = errors.New("invalid key")

	// ErrMalformedEnvelope is returned when an envelope field is badly encoded,
	// missing, or of unexpected length.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrMalformedIdentity is returned when a shared peer identity fails
	// schema validation or its fingerprint does not match its key.
	ErrMalformedIdentity = errors.New("malformed peer identity")

	// ErrRandomnessUnavailable is returned when the secure random source fails.
	ErrRandomnessUnavailable = errors.New("secure randomness unavailable")

	// ErrSigning is returned when a ciphertext cannot be signed.
	ErrSigning = errors.New("signing failed")

	// ErrSignatureVerification is returned when an envelope signature does not
	// match the claimed sender.
	ErrSignatureVerification = errors.New("sender identity could not be verified")

	// ErrDecryption is returned when the AEAD tag does not verify, usually
	// because the session key is wrong or stale.
	ErrDecryption = errors.New("message could not be decrypted")

	// ErrEncoding is returned when decrypted bytes are not valid UTF-8 text.
	ErrEncoding = errors.New("decrypted message is not valid text")

	// ErrNoIdentity is returned when no local identity has been created.
	ErrNoIdentity = errors.New("no identity; run init first")

	// ErrNoRelationship is returned when no peer has been connected.
	ErrNoRelationship = errors.New("no connected peer; run connect first")
)

// Error is a typed failure carrying one of the sentinel kinds above, the
// operation that failed and an optional cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

// E builds an *Error.
func E(kind error, op string, err error) error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the error kind.
func (e *Error) Is(target error) bool { return target == e.Kind }

// IsRejection reports whether err is an expected, user-recoverable rejection
// of an inbound envelope (spoofed sender, tampered data, wrong or stale key).
func IsRejection(err error) bool {
	return errors.Is(err, ErrSignatureVerification) ||
		errors.Is(err, ErrDecryption) ||
		errors.Is(err, ErrEncoding) ||
		errors.Is(err, ErrMalformedEnvelope)
}
