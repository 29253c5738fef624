// Package wire implements the on-the-wire request/response codec: a fixed
// request header, an intervals- or bins-shaped body, and response framing.
// Every numeric field is little-endian and unaligned.
package wire

import (
	"bytes"
	"encoding/binary"

	"github.com/grailbio/base/errors"
)

// RequestType selects the shape of a request body and whether the result
// includes covered-site counts.
type RequestType uint8

const (
	IntervalsCounts RequestType = iota
	IntervalsCountsCov
	BinsCounts
	BinsCountsCov
)

// Covered reports whether this request type asks for the covered-site
// variant of the level element.
func (t RequestType) Covered() bool {
	return t == IntervalsCountsCov || t == BinsCountsCov
}

// IsBins reports whether this request type's body is the bins form.
func (t RequestType) IsBins() bool {
	return t == BinsCounts || t == BinsCountsCov
}

// Valid reports whether t is one of the four defined request types.
func (t RequestType) Valid() bool {
	return t <= BinsCountsCov
}

const (
	accessionWidth = 32
	// HeaderSize is the fixed width of a request header on the wire:
	// a 32-byte accession, a 4-byte methylome_size, and a 1-byte request_type.
	HeaderSize = accessionWidth + 4 + 1
)

// Header is the fixed-width request header.
type Header struct {
	Accession     string
	MethylomeSize uint32
	RequestType   RequestType
}

// Encode renders h as HeaderSize bytes. Accession is truncated to
// accessionWidth bytes and NUL-padded; callers should validate its length
// before encoding if truncation would be surprising.
func (h Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[:accessionWidth], h.Accession)
	binary.LittleEndian.PutUint32(buf[accessionWidth:accessionWidth+4], h.MethylomeSize)
	buf[accessionWidth+4] = byte(h.RequestType)
	return buf
}

// DecodeHeader parses a HeaderSize-byte buffer into a Header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) != HeaderSize {
		return Header{}, errors.Errorf("wire: header must be %d bytes, got %d", HeaderSize, len(buf))
	}
	accession := string(bytes.TrimRight(buf[:accessionWidth], "\x00"))
	size := binary.LittleEndian.Uint32(buf[accessionWidth : accessionWidth+4])
	rt := RequestType(buf[accessionWidth+4])
	if !rt.Valid() {
		return Header{}, errors.Errorf("wire: unknown request_type %d", rt)
	}
	return Header{Accession: accession, MethylomeSize: size, RequestType: rt}, nil
}
