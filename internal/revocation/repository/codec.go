package repository

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/domain"
)

// Ledger file formats.
const (
	FormatJSON = "json"
	FormatCBOR = "cbor"
)

// Codec converts the entry sequence to and from a file's bytes.
type Codec interface {
	Encode(entries []domain.Entry) ([]byte, error)
	Decode(data []byte) ([]domain.Entry, error)
	// Ext is the file extension without the dot.
	Ext() string
}

// CodecFor returns the codec for a LEDGER_FORMAT value. Empty selects JSON.
func CodecFor(format string) (Codec, error) {
	switch format {
	case "", FormatJSON:
		return JSONCodec{}, nil
	case FormatCBOR:
		return CBORCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown ledger format %q", format)
	}
}

// record is the persisted shape of an Entry. expiresAt is epoch milliseconds and
// blacklistedAt an RFC 3339 UTC timestamp, compatible with existing ledger files.
type record struct {
	Token     string `json:"token" cbor:"1,keyasint"`
	ExpiresAt int64  `json:"expiresAt" cbor:"2,keyasint"`
	RevokedAt string `json:"blacklistedAt" cbor:"3,keyasint"`
}

func toRecords(entries []domain.Entry) []record {
	out := make([]record, len(entries))
	for i, e := range entries {
		out[i] = record{
			Token:     e.Token,
			ExpiresAt: e.ExpiresAt.UnixMilli(),
			RevokedAt: e.RevokedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	return out
}

func fromRecords(recs []record) ([]domain.Entry, error) {
	out := make([]domain.Entry, 0, len(recs))
	for i, r := range recs {
		if r.Token == "" {
			return nil, fmt.Errorf("entry %d: empty token", i)
		}
		revokedAt, err := time.Parse(time.RFC3339Nano, r.RevokedAt)
		if err != nil {
			return nil, fmt.Errorf("entry %d: blacklistedAt: %w", i, err)
		}
		out = append(out, domain.Entry{
			Token:     r.Token,
			ExpiresAt: time.UnixMilli(r.ExpiresAt).UTC(),
			RevokedAt: revokedAt.UTC(),
		})
	}
	return out, nil
}

// JSONCodec writes the ledger as an indented JSON array.
type JSONCodec struct{}

func (JSONCodec) Ext() string { return FormatJSON }

func (JSONCodec) Encode(entries []domain.Entry) ([]byte, error) {
	b, err := json.MarshalIndent(toRecords(entries), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func (JSONCodec) Decode(data []byte) ([]domain.Entry, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var recs []record
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode json ledger: %w", err)
	}
	return fromRecords(recs)
}

// CBORCodec writes the ledger as a CBOR array using core deterministic encoding.
type CBORCodec struct{}

var (
	cborEnc cbor.EncMode
	cborDec cbor.DecMode
)

func init() {
	var err error
	cborEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("revocation: cbor encoder: " + err.Error())
	}
	cborDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("revocation: cbor decoder: " + err.Error())
	}
}

func (CBORCodec) Ext() string { return FormatCBOR }

func (CBORCodec) Encode(entries []domain.Entry) ([]byte, error) {
	return cborEnc.Marshal(toRecords(entries))
}

func (CBORCodec) Decode(data []byte) ([]domain.Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var recs []record
	if err := cborDec.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decode cbor ledger: %w", err)
	}
	return fromRecords(recs)
}
