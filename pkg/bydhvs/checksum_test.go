package bydhvs

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

// golden vectors from captured Be_Connect request traffic
func TestChecksumGoldenVectors(t *testing.T) {
	tests := []struct {
		name string
		body string
		crc  uint16
	}{
		{"identity read", "010300000066", 0xe0c5},
		{"status read", "010305000019", 0xcc84},
		{"cell info read", "010300100003", 0x0e04},
		{"tower 1 select", "0110055000020400018100", 0x53f8},
		{"tower 2 select", "0110055000020400028100", 0x5308},
		{"write ack", "011005500002", 0x1541},
		{"empty", "", 0xffff},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.crc, Checksum(mustHex(t, tt.body)))
		})
	}
}

func TestChecksumOrderSensitive(t *testing.T) {
	assert.NotEqual(t, Checksum([]byte{0x01, 0x02}), Checksum([]byte{0x02, 0x01}))
}

func TestAppendVerifyChecksum(t *testing.T) {
	frame := appendChecksum([]byte{0x01, 0x03, 0x02, 0xab, 0xcd})
	assert.True(t, verifyChecksum(frame))

	frame[3] ^= 0x01
	assert.False(t, verifyChecksum(frame))

	assert.False(t, verifyChecksum([]byte{0x01}))
}
