package bydhvs

import "github.com/sigurn/crc16"

// The device frames carry a CRC-16/MODBUS trailer (poly 0xA001 reflected,
// init 0xFFFF), low byte first, computed over every preceding frame byte.
var crcTable = crc16.MakeTable(crc16.CRC16_MODBUS)

// Checksum computes the CRC-16/MODBUS of data.
func Checksum(data []byte) uint16 {
	return crc16.Checksum(data, crcTable)
}

// appendChecksum appends the little-endian CRC trailer to frame.
func appendChecksum(frame []byte) []byte {
	crc := Checksum(frame)
	return append(frame, byte(crc), byte(crc>>8))
}

// verifyChecksum checks the CRC trailer of a complete frame.
func verifyChecksum(frame []byte) bool {
	if len(frame) < checksumLen {
		return false
	}
	body := frame[:len(frame)-checksumLen]
	want := uint16(frame[len(frame)-2]) | uint16(frame[len(frame)-1])<<8
	return Checksum(body) == want
}
