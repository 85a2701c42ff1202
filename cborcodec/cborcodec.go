// Package cborcodec provides the deterministic CBOR encoding shared by
// receipts and signed tree heads.
package cborcodec

import (
	"github.com/fxamacker/cbor/v2"
)

// Codec encodes with RFC 8949 core deterministic encoding and rejects
// duplicate map keys and indefinite length items on decode, so a value has
// exactly one encoding.
type Codec struct {
	encMode cbor.EncMode
	decMode cbor.DecMode
}

func NewDeterministicEncOpts() cbor.EncOptions {
	return cbor.CoreDetEncOptions()
}

func NewDeterministicDecOpts() cbor.DecOptions {
	return cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
		IntDec:      cbor.IntDecConvertNone,
	}
}

func New() (Codec, error) {
	return NewCodec(NewDeterministicEncOpts(), NewDeterministicDecOpts())
}

func NewCodec(encOpts cbor.EncOptions, decOpts cbor.DecOptions) (Codec, error) {
	var err error
	c := Codec{}
	if c.encMode, err = encOpts.EncMode(); err != nil {
		return Codec{}, err
	}
	if c.decMode, err = decOpts.DecMode(); err != nil {
		return Codec{}, err
	}
	return c, nil
}

func (c Codec) MarshalCBOR(v any) ([]byte, error) {
	return c.encMode.Marshal(v)
}

func (c Codec) UnmarshalInto(data []byte, v any) error {
	return c.decMode.Unmarshal(data, v)
}
