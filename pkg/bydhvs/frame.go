package bydhvs

import (
	"encoding/binary"
)

// encodeReadRequest builds a register read frame:
// addr | 0x03 | startHi startLo | countHi countLo | crcLo crcHi
func encodeReadRequest(register, count uint16) []byte {
	frame := make([]byte, 6, 8)
	frame[0] = deviceAddress
	frame[1] = fnReadRegisters
	binary.BigEndian.PutUint16(frame[2:4], register)
	binary.BigEndian.PutUint16(frame[4:6], count)
	return appendChecksum(frame)
}

// encodeWriteRequest builds a register write frame:
// addr | 0x10 | startHi startLo | countHi countLo | byteCount | data | crcLo crcHi
// The register count is derived from len(data), which must be even.
func encodeWriteRequest(register uint16, data []byte) []byte {
	frame := make([]byte, 7, 7+len(data)+checksumLen)
	frame[0] = deviceAddress
	frame[1] = fnWriteRegisters
	binary.BigEndian.PutUint16(frame[2:4], register)
	binary.BigEndian.PutUint16(frame[4:6], uint16(len(data)/2))
	frame[6] = byte(len(data))
	frame = append(frame, data...)
	return appendChecksum(frame)
}

// decodeResponse validates and strips the framing of a register read
// reply, returning the payload. Length and checksum violations are
// FrameError; a wrong address, function code or a device exception is
// ProtocolError. No partially parsed payload is ever returned.
func decodeResponse(step string, frame []byte) ([]byte, *CycleError) {
	if len(frame) < minResponseLen {
		return nil, frameErrorf(step, "short frame: %d bytes", len(frame))
	}
	if !verifyChecksum(frame) {
		return nil, frameErrorf(step, "checksum mismatch")
	}
	if frame[0] != deviceAddress {
		return nil, protocolErrorf(step, "unexpected device address 0x%02x", frame[0])
	}
	if frame[1] == fnReadRegisters|exceptionFlag {
		return nil, protocolErrorf(step, "device exception 0x%02x", frame[2])
	}
	if frame[1] != fnReadRegisters {
		return nil, protocolErrorf(step, "unexpected function code 0x%02x", frame[1])
	}
	declared := int(frame[2])
	payload := frame[responseHeaderLen : len(frame)-checksumLen]
	if declared != len(payload) {
		return nil, frameErrorf(step, "declared length %d, received %d", declared, len(payload))
	}
	return payload, nil
}

// decodeWriteAck validates the echo reply of a register write. The device
// acknowledges a write by echoing address, function, start register and
// register count.
func decodeWriteAck(step string, frame []byte, register, count uint16) *CycleError {
	if len(frame) != writeAckFrameLen {
		return frameErrorf(step, "write ack: %d bytes, want %d", len(frame), writeAckFrameLen)
	}
	if !verifyChecksum(frame) {
		return frameErrorf(step, "write ack: checksum mismatch")
	}
	if frame[0] != deviceAddress || frame[1] != fnWriteRegisters {
		return protocolErrorf(step, "write ack: unexpected header 0x%02x 0x%02x", frame[0], frame[1])
	}
	if got := binary.BigEndian.Uint16(frame[2:4]); got != register {
		return protocolErrorf(step, "write ack: register 0x%04x, want 0x%04x", got, register)
	}
	if got := binary.BigEndian.Uint16(frame[4:6]); got != count {
		return protocolErrorf(step, "write ack: count %d, want %d", got, count)
	}
	return nil
}

func u16(payload []byte, off int) uint16 {
	return binary.BigEndian.Uint16(payload[off : off+2])
}

func s16(payload []byte, off int) int16 {
	return int16(binary.BigEndian.Uint16(payload[off : off+2]))
}

func u32(payload []byte, off int) uint32 {
	return binary.BigEndian.Uint32(payload[off : off+4])
}
