package bydhvs

import (
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// fakeDevice is a scripted stand-in for the battery's TCP service. It
// accepts one connection and answers the expected request sequence with
// fixed byte scripts, optionally split into chunks or cut short to
// inject faults.
type fakeDevice struct {
	ln       net.Listener
	steps    []fakeStep
	connDone chan struct{}
}

type fakeStep struct {
	expect     []byte
	chunks     [][]byte
	closeAfter bool
	stall      bool
}

func startFakeDevice(t *testing.T, steps []fakeStep) *fakeDevice {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	dev := &fakeDevice{ln: ln, steps: steps, connDone: make(chan struct{})}
	t.Cleanup(func() { _ = ln.Close() })
	go dev.serve()
	return dev
}

func (d *fakeDevice) endpoint(timeout time.Duration) Endpoint {
	addr := d.ln.Addr().(*net.TCPAddr)
	return Endpoint{Host: "127.0.0.1", Port: uint16(addr.Port), Timeout: timeout}
}

func (d *fakeDevice) serve() {
	conn, err := d.ln.Accept()
	if err != nil {
		close(d.connDone)
		return
	}
	defer func() {
		_ = conn.Close()
		close(d.connDone)
	}()

	buf := make([]byte, 256)
	for _, step := range d.steps {
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		if !bytesEqual(buf[:n], step.expect) {
			return
		}
		if step.stall {
			// swallow the request and go silent until the client gives up
			_, _ = conn.Read(buf)
			return
		}
		for i, chunk := range step.chunks {
			if i > 0 {
				time.Sleep(5 * time.Millisecond)
			}
			if _, err := conn.Write(chunk); err != nil {
				return
			}
		}
		if step.closeAfter {
			return
		}
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// response framing helpers, built independently of the codec under test

func readResponseFrame(payload []byte) []byte {
	frame := append([]byte{deviceAddress, fnReadRegisters, byte(len(payload))}, payload...)
	return appendChecksum(frame)
}

func writeAckFrame(register, count uint16) []byte {
	frame := make([]byte, 6)
	frame[0] = deviceAddress
	frame[1] = fnWriteRegisters
	binary.BigEndian.PutUint16(frame[2:4], register)
	binary.BigEndian.PutUint16(frame[4:6], count)
	return appendChecksum(frame)
}

// scripted payloads

type simTopology struct {
	towers  int
	modules int
	cells   int
	temps   int
	soc     uint16
}

func identityPayload(top simTopology) []byte {
	p := make([]byte, 2*cntIdentity)
	copy(p[idOffSerial:], "P030T020Z1234567890")
	p[idOffBMUAMajor], p[idOffBMUAMinor] = 3, 16
	p[idOffBMUBMajor], p[idOffBMUBMinor] = 3, 16
	p[idOffBMSMajor], p[idOffBMSMinor] = 3, 21
	p[idOffTopology] = byte(top.towers<<4 | top.modules)
	p[idOffCells] = byte(top.cells)
	p[idOffTemps] = byte(top.temps)
	p[idOffVariant] = byte(VariantHVS)
	p[idOffGridType] = 1
	return p
}

func statusPayload(top simTopology) []byte {
	p := make([]byte, 2*cntStatus)
	binary.BigEndian.PutUint16(p[stOffSOC:], top.soc)
	binary.BigEndian.PutUint16(p[stOffMaxVoltage:], 21200)  // 212.00 V
	binary.BigEndian.PutUint16(p[stOffMinVoltage:], 21090)  // 210.90 V
	binary.BigEndian.PutUint16(p[stOffSOH:], 99)
	binary.BigEndian.PutUint16(p[stOffCurrent:], 42)        // 4.2 A charging
	binary.BigEndian.PutUint16(p[stOffPackVoltage:], 21150) // 211.50 V
	binary.BigEndian.PutUint16(p[stOffMaxTemp:], 24)
	binary.BigEndian.PutUint16(p[stOffMinTemp:], 21)
	binary.BigEndian.PutUint16(p[stOffPackTemp:], 22)
	binary.BigEndian.PutUint16(p[stOffErrors:], 0)
	p[stOffParamTMajor], p[stOffParamTMinor] = 1, 4
	binary.BigEndian.PutUint16(p[stOffOutputVoltage:], 21130)
	binary.BigEndian.PutUint32(p[stOffChargeTotal:], 105319)    // 10531.9 Ah
	binary.BigEndian.PutUint32(p[stOffDischargeTotal:], 102894) // 10289.4 Ah
	return p
}

func towerPayload(top simTopology, tower int) []byte {
	id := Identity{
		ModulesPerTower: top.modules,
		CellsPerModule:  top.cells,
		TempsPerModule:  top.temps,
	}
	p := make([]byte, 2*int(towerDataRegisterCount(id)))
	p[twOffIndex] = byte(tower)
	p[twOffModuleCount] = byte(top.modules)
	binary.BigEndian.PutUint16(p[twOffMaxCellVoltage:], 3312)
	binary.BigEndian.PutUint16(p[twOffMinCellVoltage:], 3295)
	p[twOffMaxCellNo], p[twOffMinCellNo] = 7, 21
	binary.BigEndian.PutUint16(p[twOffMaxCellTemp:], 24)
	binary.BigEndian.PutUint16(p[twOffMinCellTemp:], 21)
	p[twOffMaxTempCellNo], p[twOffMinTempCellNo] = 4, 12
	binary.BigEndian.PutUint16(p[twOffBalancingCount:], 2)
	binary.BigEndian.PutUint16(p[twOffBalancingFlags:], 0x0001)

	off := towerSummaryRegs * 2
	for m := 1; m <= top.modules; m++ {
		p[off] = byte(m)
		off += moduleHeaderRegs * 2
		for c := 0; c < top.cells; c++ {
			binary.BigEndian.PutUint16(p[off:], uint16(3300+c))
			off += 2
		}
		for c := 0; c < top.temps; c++ {
			binary.BigEndian.PutUint16(p[off:], uint16(21+c%4))
			off += 2
		}
	}
	return p
}

func selectTowerRequest(tower int) []byte {
	return encodeWriteRequest(regMeasure, []byte{0x00, byte(tower), 0x81, 0x00})
}

// happyScript is the full request/response sequence of one successful
// poll cycle against the given topology.
func happyScript(top simTopology) []fakeStep {
	steps := []fakeStep{
		{expect: selectTowerRequest(1), chunks: [][]byte{writeAckFrame(regMeasure, 2)}},
		{expect: encodeReadRequest(regIdentity, cntIdentity), chunks: [][]byte{readResponseFrame(identityPayload(top))}},
		{expect: encodeReadRequest(regStatus, cntStatus), chunks: [][]byte{readResponseFrame(statusPayload(top))}},
	}
	id := Identity{ModulesPerTower: top.modules, CellsPerModule: top.cells, TempsPerModule: top.temps}
	for tower := 1; tower <= top.towers; tower++ {
		steps = append(steps,
			fakeStep{expect: selectTowerRequest(tower), chunks: [][]byte{writeAckFrame(regMeasure, 2)}},
		)
		steps = append(steps, blockReadSteps(regTowerData, towerDataRegisterCount(id), towerPayload(top, tower))...)
	}
	return steps
}

// blockReadSteps scripts a block read the way the client issues it: one
// request per chunk of at most maxRegistersPerRead registers.
func blockReadSteps(register, count uint16, payload []byte) []fakeStep {
	var steps []fakeStep
	off := 0
	for count > 0 {
		n := count
		if n > maxRegistersPerRead {
			n = maxRegistersPerRead
		}
		steps = append(steps, fakeStep{
			expect: encodeReadRequest(register, n),
			chunks: [][]byte{readResponseFrame(payload[off : off+2*int(n)])},
		})
		register += n
		count -= n
		off += 2 * int(n)
	}
	return steps
}
