package cbor

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// EncMode is the deterministic encoding mode shared by everything that hashes or signs
// encoded values. Map keys are sorted and integers use their shortest form, so the
// same value always yields the same bytes.
var EncMode = func() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	encMode, err := options.EncMode()
	if err != nil {
		panic(fmt.Errorf("could not build deterministic cbor encoding mode: %w", err))
	}
	return encMode
}()

// DecMode rejects duplicate map keys and indefinite length items, which a deterministic
// encoder never produces.
var DecMode = func() cbor.DecMode {
	options := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}
	decMode, err := options.DecMode()
	if err != nil {
		panic(fmt.Errorf("could not build cbor decoding mode: %w", err))
	}
	return decMode
}()

type Encoder struct{}

func NewEncoder() *Encoder {
	return &Encoder{}
}

func (e *Encoder) Encode(val interface{}) ([]byte, error) {
	return EncMode.Marshal(val)
}

func (e *Encoder) Decode(b []byte, val interface{}) error {
	return DecMode.Unmarshal(b, val)
}

func (e *Encoder) MustEncode(val interface{}) []byte {
	b, err := e.Encode(val)
	if err != nil {
		panic(err)
	}
	return b
}

func (e *Encoder) MustDecode(b []byte, val interface{}) {
	err := e.Decode(b, val)
	if err != nil {
		panic(err)
	}
}
