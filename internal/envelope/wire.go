package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sigil/internal/domain"
)

// wireEnvelope is the outbound JSON shape.
type wireEnvelope struct {
	ID            string `json:"id"`
	SenderID      string `json:"senderId"`
	IV            string `json:"iv"`
	EncryptedData string `json:"encryptedData"`
	Signature     string `json:"signature"`
	Timestamp     int64  `json:"timestamp"`
}

// inboundEnvelope uses pointers so missing members can be told apart from
// zero values.
type inboundEnvelope struct {
	ID            *string `json:"id"`
	SenderID      *string `json:"senderId"`
	IV            *string `json:"iv"`
	EncryptedData *string `json:"encryptedData"`
	Signature     *string `json:"signature"`
	Timestamp     *int64  `json:"timestamp"`
}

// MarshalWire renders env in the transportable JSON form.
func MarshalWire(env domain.SealedEnvelope) ([]byte, error) {
	f := Encode(env.Nonce, env.Ciphertext, env.Signature)
	return json.Marshal(wireEnvelope{
		ID:            env.ID,
		SenderID:      env.SenderID.String(),
		IV:            f.IV,
		EncryptedData: f.EncryptedData,
		Signature:     f.Signature,
		Timestamp:     env.Timestamp.UnixMilli(),
	})
}

// ParseWire strictly decodes a peer-supplied envelope. Nothing in data is
// trusted until every member has been validated.
func ParseWire(data []byte) (domain.SealedEnvelope, error) {
	const op = "parse envelope"
	var in inboundEnvelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return domain.SealedEnvelope{}, domain.E(domain.ErrMalformedEnvelope, op, err)
	}
	if dec.More() {
		return domain.SealedEnvelope{}, domain.E(domain.ErrMalformedEnvelope, op, errors.New("trailing data"))
	}

	missing := func(name string) error {
		return domain.E(domain.ErrMalformedEnvelope, op, fmt.Errorf("missing %q", name))
	}
	switch {
	case in.ID == nil || *in.ID == "":
		return domain.SealedEnvelope{}, missing("id")
	case in.SenderID == nil || *in.SenderID == "":
		return domain.SealedEnvelope{}, missing("senderId")
	case in.IV == nil:
		return domain.SealedEnvelope{}, missing("iv")
	case in.EncryptedData == nil:
		return domain.SealedEnvelope{}, missing("encryptedData")
	case in.Signature == nil:
		return domain.SealedEnvelope{}, missing("signature")
	case in.Timestamp == nil:
		return domain.SealedEnvelope{}, missing("timestamp")
	case *in.Timestamp < 0:
		return domain.SealedEnvelope{}, domain.E(domain.ErrMalformedEnvelope, op, errors.New("negative timestamp"))
	}

	nonce, ciphertext, signature, err := Decode(Fields{
		IV:            *in.IV,
		EncryptedData: *in.EncryptedData,
		Signature:     *in.Signature,
	})
	if err != nil {
		return domain.SealedEnvelope{}, err
	}
	return domain.SealedEnvelope{
		ID:         *in.ID,
		SenderID:   domain.UserID(*in.SenderID),
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Signature:  signature,
		Timestamp:  time.UnixMilli(*in.Timestamp),
	}, nil
}
