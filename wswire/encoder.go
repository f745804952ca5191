package wswire

import "encoding/binary"

// EncodeFrame serializes a single unmasked server-to-client frame.
// Servers never mask outgoing frames per RFC6455 §5.1.
func EncodeFrame(opcode byte, payload []byte) []byte {
	plen := len(payload)
	b0 := byte(FinBit) | (opcode & 0x0F)

	var hdr []byte
	switch {
	case plen <= 125:
		hdr = []byte{b0, byte(plen)}
	case plen <= 0xFFFF:
		hdr = make([]byte, 4)
		hdr[0] = b0
		hdr[1] = 126
		binary.BigEndian.PutUint16(hdr[2:], uint16(plen))
	default:
		hdr = make([]byte, 10)
		hdr[0] = b0
		hdr[1] = 127
		binary.BigEndian.PutUint64(hdr[2:], uint64(plen))
	}

	buf := make([]byte, len(hdr)+plen)
	copy(buf, hdr)
	copy(buf[len(hdr):], payload)
	return buf
}

// EncodeClose builds a close frame carrying a 2-byte status code followed
// by an optional UTF-8 reason, truncated to fit MaxControlPayloadLen.
func EncodeClose(code int, reason string) []byte {
	payload := make([]byte, 2, 2+len(reason))
	binary.BigEndian.PutUint16(payload, uint16(code))
	payload = append(payload, reason...)
	if len(payload) > MaxControlPayloadLen {
		payload = payload[:MaxControlPayloadLen]
	}
	return EncodeFrame(OpcodeClose, payload)
}

// EncodePong builds a pong frame that echoes the ping payload, as required
// by RFC6455 §5.5.3.
func EncodePong(payload []byte) []byte {
	return EncodeFrame(OpcodePong, payload)
}
