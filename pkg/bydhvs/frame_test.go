package bydhvs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// every request of the poll sequence is a fixed byte string on the wire
func TestEncodeRequestGoldenFrames(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  string
	}{
		{"identity", encodeReadRequest(regIdentity, cntIdentity), "010300000066c5e0"},
		{"status", encodeReadRequest(regStatus, cntStatus), "01030500001984cc"},
		{"cell info", encodeReadRequest(regCellInfo, cntCellInfo), "010300100003040e"},
		{"tower 1 select", encodeWriteRequest(regMeasure, []byte{0x00, 0x01, 0x81, 0x00}), "0110055000020400018100f853"},
		{"tower 2 select", encodeWriteRequest(regMeasure, []byte{0x00, 0x02, 0x81, 0x00}), "01100550000204000281000853"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, mustHex(t, tt.want), tt.frame)
		})
	}
}

func TestEncodeRequestsDistinct(t *testing.T) {
	a := encodeReadRequest(regIdentity, cntIdentity)
	b := encodeReadRequest(regStatus, cntStatus)
	c := encodeReadRequest(regStatus, cntStatus+1)
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
}

func TestDecodeResponseValid(t *testing.T) {
	payload := []byte{0x00, 0x57, 0x01, 0x02}
	frame := readResponseFrame(payload)

	got, cerr := decodeResponse("status", frame)
	require.Nil(t, cerr)
	assert.Equal(t, payload, got)

	// pure and deterministic
	again, cerr := decodeResponse("status", frame)
	require.Nil(t, cerr)
	assert.Equal(t, got, again)
}

func TestDecodeResponseShortFrame(t *testing.T) {
	_, cerr := decodeResponse("status", []byte{0x01, 0x03})
	require.NotNil(t, cerr)
	assert.Equal(t, FrameError, cerr.Kind)
}

func TestDecodeResponseBadChecksum(t *testing.T) {
	frame := readResponseFrame([]byte{0x00, 0x57})
	frame[len(frame)-1] ^= 0xff

	_, cerr := decodeResponse("status", frame)
	require.NotNil(t, cerr)
	assert.Equal(t, FrameError, cerr.Kind)
}

func TestDecodeResponseDeclaredLengthMismatch(t *testing.T) {
	// declared byte count of 4, but only 2 payload bytes follow
	frame := appendChecksum([]byte{deviceAddress, fnReadRegisters, 0x04, 0x00, 0x57})

	_, cerr := decodeResponse("status", frame)
	require.NotNil(t, cerr)
	assert.Equal(t, FrameError, cerr.Kind)
}

func TestDecodeResponseDeviceException(t *testing.T) {
	frame := appendChecksum([]byte{deviceAddress, fnReadRegisters | exceptionFlag, 0x02})

	_, cerr := decodeResponse("status", frame)
	require.NotNil(t, cerr)
	assert.Equal(t, ProtocolError, cerr.Kind)
}

func TestDecodeResponseWrongAddress(t *testing.T) {
	frame := appendChecksum([]byte{0x02, fnReadRegisters, 0x01, 0x00})

	_, cerr := decodeResponse("status", frame)
	require.NotNil(t, cerr)
	assert.Equal(t, ProtocolError, cerr.Kind)
}

func TestDecodeWriteAck(t *testing.T) {
	// captured echo ack of the measure-start command
	frame := mustHex(t, "0110055000024115")
	assert.Nil(t, decodeWriteAck("handshake", frame, regMeasure, 2))

	cerr := decodeWriteAck("handshake", frame, regTowerData, 2)
	require.NotNil(t, cerr)
	assert.Equal(t, ProtocolError, cerr.Kind)

	cerr = decodeWriteAck("handshake", frame[:6], regMeasure, 2)
	require.NotNil(t, cerr)
	assert.Equal(t, FrameError, cerr.Kind)
}

func TestDecodeErrorFlags(t *testing.T) {
	assert.Nil(t, DecodeErrorFlags(0))

	flags := DecodeErrorFlags(1<<0 | 1<<9)
	require.Len(t, flags, 2)
	assert.Equal(t, "cell voltage sensor failure", flags[0])
	assert.Equal(t, "pre-charging failed", flags[1])
}
