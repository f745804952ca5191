package wswire

import (
	"encoding/binary"
	"errors"

	"github.com/riftio/reactorhttp/api"
)

// ErrProtocolError signals a frame that violates RFC6455 framing rules
// (e.g. a fragmented or oversized control frame), mapped to close code
// CloseProtocolError by the reactor's read pipeline.
var ErrProtocolError = errors.New("wswire: protocol error")

// ErrFrameTooLarge signals a payload length beyond MaxFramePayload, mapped
// to close code CloseMessageTooBig.
var ErrFrameTooLarge = errors.New("wswire: frame payload exceeds maximum allowed size")

// Decoder incrementally parses WebSocket frames from fed byte chunks,
// retaining any partial frame across calls in a private buffer.
type Decoder struct {
	buf []byte
}

// NewDecoder creates an empty frame Decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Feed appends chunk to the decoder's internal buffer. Safe to call with a
// slice into a buffer the caller reuses immediately after.
func (d *Decoder) Feed(chunk []byte) {
	d.buf = append(d.buf, chunk...)
}

// Next attempts to parse one complete frame off the front of the internal
// buffer. Returns api.ErrNeedMore if more bytes are required, ErrProtocolError
// for a framing violation, or ErrFrameTooLarge if the payload length exceeds
// MaxFramePayload.
func (d *Decoder) Next() (*Frame, error) {
	raw := d.buf
	if len(raw) < 2 {
		return nil, api.ErrNeedMore
	}

	fin := raw[0]&FinBit != 0
	opcode := raw[0] & 0x0F
	masked := raw[1]&MaskBit != 0
	length := int64(raw[1] & 0x7F)
	offset := 2

	switch length {
	case 126:
		if len(raw) < offset+2 {
			return nil, api.ErrNeedMore
		}
		length = int64(binary.BigEndian.Uint16(raw[offset:]))
		offset += 2
	case 127:
		if len(raw) < offset+8 {
			return nil, api.ErrNeedMore
		}
		length = int64(binary.BigEndian.Uint64(raw[offset:]))
		offset += 8
	}

	if length > MaxFramePayload {
		return nil, ErrFrameTooLarge
	}

	isControl := opcode&0x8 != 0
	if isControl && (length > MaxControlPayloadLen || !fin) {
		return nil, ErrProtocolError
	}

	if masked {
		if len(raw) < offset+4 {
			return nil, api.ErrNeedMore
		}
	}
	var maskKey [4]byte
	if masked {
		copy(maskKey[:], raw[offset:offset+4])
		offset += 4
	}

	if int64(len(raw)-offset) < length {
		return nil, api.ErrNeedMore
	}

	payloadData := raw[offset : int64(offset)+length]
	payload := make([]byte, length)
	if masked {
		for i := int64(0); i < length; i++ {
			payload[i] = payloadData[i] ^ maskKey[i%4]
		}
	} else {
		copy(payload, payloadData)
	}

	consumed := int64(offset) + length
	remaining := int64(len(d.buf)) - consumed
	copy(d.buf, d.buf[consumed:])
	d.buf = d.buf[:remaining]

	return &Frame{
		IsFinal:    fin,
		Opcode:     opcode,
		Masked:     masked,
		PayloadLen: length,
		MaskKey:    maskKey,
		Payload:    payload,
	}, nil
}
