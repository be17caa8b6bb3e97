package protocol

import (
	"encoding/base64"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
	"github.com/taurusgroup/cmp-ecdsa/internal/round"
	"github.com/taurusgroup/cmp-ecdsa/pkg/party"
)

// envelope is the wire form of a single payload.
// Content is the cbor encoding of the round.Content produced by a round.
type envelope struct {
	SSID    []byte
	Content cbor.RawMessage
}

// Outbound holds the messages produced by a round, ready to be delivered to the other parties.
type Outbound struct {
	// Round is the number of the round which produced these messages.
	// Receivers pass it as the declared round to Context.Push.
	Round round.Number
	// Broadcast is the single payload to be sent to all other parties, or "" if the round broadcasts nothing.
	Broadcast string
	// Reliable is true if Broadcast must be delivered with a reliable broadcast channel.
	Reliable bool
	// P2P holds the point-to-point payloads, P2P[i] is intended for To[i].
	P2P []string
	// To lists the destination of every payload in P2P.
	// When the round only broadcasts, To lists all other parties.
	To []party.ID
}

// PayloadFor returns the point-to-point payload intended for id, or "" if there is none.
func (o *Outbound) PayloadFor(id party.ID) string {
	if len(o.P2P) == 0 {
		return ""
	}
	for i, to := range o.To {
		if to == id {
			return o.P2P[i]
		}
	}
	return ""
}

func encodePayload(ssid []byte, content round.Content) (string, error) {
	data, err := cbor.Marshal(content)
	if err != nil {
		return "", errors.WithStack(err)
	}
	env, err := cbor.Marshal(&envelope{SSID: ssid, Content: data})
	if err != nil {
		return "", errors.WithStack(err)
	}
	return base64.RawURLEncoding.EncodeToString(env), nil
}

func decodeEnvelope(payload string) (*envelope, error) {
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(err, "protocol: payload is not valid base64")
	}
	var env envelope
	if err = cbor.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "protocol: payload is not a valid envelope")
	}
	return &env, nil
}

func decodeContent(env *envelope, content round.Content) error {
	if content == nil {
		return errors.WithStack(round.ErrNilContent)
	}
	if err := cbor.Unmarshal(env.Content, content); err != nil {
		return errors.Wrap(err, "protocol: failed to unmarshal content")
	}
	return nil
}
