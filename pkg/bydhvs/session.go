package bydhvs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// session drives the fixed command sequence of one poll cycle over one
// connection. Commands are strictly sequential; the device's response
// framing does not identify which request it answers, so there is never
// more than one request in flight.
type session struct {
	tr     *transport
	id     Identity
	logger *zap.Logger
}

// Poll runs one complete poll cycle against the battery at ep and returns
// either a fully populated Snapshot or a *CycleError. The connection is
// opened at cycle start and closed on every exit path, including ctx
// cancellation. Poll keeps no state between calls.
func Poll(ctx context.Context, ep Endpoint, logger *zap.Logger) (*Snapshot, error) {
	start := time.Now()

	tr, err := dialTransport(ctx, ep)
	if err != nil {
		return nil, cycleError(ConnectError, "connect", err)
	}
	defer tr.Close()
	// a cancelled ctx unblocks pending reads by closing the socket
	stop := context.AfterFunc(ctx, tr.Close)
	defer stop()

	s := &session{tr: tr, logger: logger}

	if err := s.handshake(); err != nil {
		return nil, err
	}
	snap := &Snapshot{Taken: start}
	if err := s.queryIdentity(snap); err != nil {
		return nil, err
	}
	if err := s.queryStatus(snap); err != nil {
		return nil, err
	}
	for tower := 1; tower <= s.id.Towers; tower++ {
		t, err := s.queryTower(tower)
		if err != nil {
			return nil, err
		}
		snap.Towers = append(snap.Towers, *t)
	}

	logger.Debug("poll cycle complete",
		zap.String("serial", snap.Identity.Serial),
		zap.Int("towers", len(snap.Towers)),
		zap.Duration("elapsed", time.Since(start)))
	return snap, nil
}

// exchange sends one request and receives at least min response bytes.
func (s *session) exchange(step string, req []byte, min int) ([]byte, *CycleError) {
	if err := s.tr.send(req); err != nil {
		return nil, cycleError(WriteError, step, err)
	}
	raw, err := s.tr.receive(min)
	if err != nil {
		return nil, cycleError(ReadError, step, err)
	}
	return raw, nil
}

// readFrame receives one read response frame. The header is read first:
// an exception reply is shorter than any data frame, so sizing the read
// by the expected payload would stall on it and report a timeout where
// the device actually answered.
func (s *session) readFrame(step string) ([]byte, *CycleError) {
	raw, err := s.tr.receive(minResponseLen)
	if err != nil {
		return nil, cycleError(ReadError, step, err)
	}
	if raw[1]&exceptionFlag != 0 {
		return raw, nil
	}
	expected := responseHeaderLen + int(raw[2]) + checksumLen
	for len(raw) < expected {
		more, err := s.tr.receive(expected - len(raw))
		if err != nil {
			return nil, cycleError(ReadError, step, err)
		}
		raw = append(raw, more...)
	}
	return raw, nil
}

// readRegisters performs one read exchange and returns the validated
// payload, which is exactly 2*count bytes long. count must stay within
// maxRegistersPerRead.
func (s *session) readRegisters(step string, register, count uint16) ([]byte, *CycleError) {
	if err := s.tr.send(encodeReadRequest(register, count)); err != nil {
		return nil, cycleError(WriteError, step, err)
	}
	raw, cerr := s.readFrame(step)
	if cerr != nil {
		return nil, cerr
	}
	payload, cerr := decodeResponse(step, raw)
	if cerr != nil {
		return nil, cerr
	}
	if len(payload) != 2*int(count) {
		return nil, protocolErrorf(step, "payload %d bytes, want %d", len(payload), 2*int(count))
	}
	return payload, nil
}

// readRegistersChunked splits a large block read into requests whose
// responses each fit the one byte length field of the frame format. The
// chunks read consecutive register ranges and concatenate cleanly.
func (s *session) readRegistersChunked(step string, register, count uint16) ([]byte, *CycleError) {
	payload := make([]byte, 0, 2*int(count))
	for count > 0 {
		n := count
		if n > maxRegistersPerRead {
			n = maxRegistersPerRead
		}
		part, cerr := s.readRegisters(step, register, n)
		if cerr != nil {
			return nil, cerr
		}
		payload = append(payload, part...)
		register += n
		count -= n
	}
	return payload, nil
}

// selectTower sends the measure-start/select command for tower (1-based)
// and validates the echo acknowledgement.
func (s *session) selectTower(step string, tower int) *CycleError {
	req := encodeWriteRequest(regMeasure, []byte{0x00, byte(tower), 0x81, 0x00})
	raw, cerr := s.exchange(step, req, writeAckFrameLen)
	if cerr != nil {
		return cerr
	}
	return decodeWriteAck(step, raw, regMeasure, 2)
}

// handshake opens the session: the measure-start command for the first
// tower must be acknowledged with its exact echo before anything else is
// queried.
func (s *session) handshake() *CycleError {
	return s.selectTower("handshake", 1)
}

func (s *session) queryIdentity(snap *Snapshot) *CycleError {
	const step = "identity"
	payload, cerr := s.readRegisters(step, regIdentity, cntIdentity)
	if cerr != nil {
		return cerr
	}

	id := Identity{
		Serial:          strings.TrimRight(strings.TrimSpace(string(payload[idOffSerial:idOffSerial+idSerialLen])), "\x00"),
		Variant:         BatteryVariant(payload[idOffVariant]),
		BMUFirmwareA:    firmwareVersion(payload[idOffBMUAMajor], payload[idOffBMUAMinor]),
		BMUFirmwareB:    firmwareVersion(payload[idOffBMUBMajor], payload[idOffBMUBMinor]),
		BMSFirmware:     firmwareVersion(payload[idOffBMSMajor], payload[idOffBMSMinor]),
		GridType:        payload[idOffGridType],
		Towers:          int(payload[idOffTopology] >> 4),
		ModulesPerTower: int(payload[idOffTopology] & 0x0f),
		CellsPerModule:  int(payload[idOffCells]),
		TempsPerModule:  int(payload[idOffTemps]),
	}

	switch id.Variant {
	case VariantHVS, VariantHMS, VariantLVS:
	default:
		return protocolErrorf(step, "unsupported battery variant code %d", payload[idOffVariant])
	}
	if id.Towers < 1 || id.Towers > maxTowers {
		return protocolErrorf(step, "implausible tower count %d", id.Towers)
	}
	if id.ModulesPerTower < 1 || id.ModulesPerTower > maxModules {
		return protocolErrorf(step, "implausible module count %d", id.ModulesPerTower)
	}
	if id.CellsPerModule < 1 || id.CellsPerModule > maxCellsPerModule {
		return protocolErrorf(step, "implausible cell count %d", id.CellsPerModule)
	}
	if id.TempsPerModule < 1 || id.TempsPerModule > maxTempsPerModule {
		return protocolErrorf(step, "implausible temperature sensor count %d", id.TempsPerModule)
	}

	s.id = id
	snap.Identity = id
	s.logger.Debug("battery identified",
		zap.String("serial", id.Serial),
		zap.Stringer("variant", id.Variant),
		zap.Int("towers", id.Towers),
		zap.Int("modules", id.ModulesPerTower),
		zap.Int("cells", id.CellsPerModule))
	return nil
}

func (s *session) queryStatus(snap *Snapshot) *CycleError {
	const step = "status"
	payload, cerr := s.readRegisters(step, regStatus, cntStatus)
	if cerr != nil {
		return cerr
	}

	// scaling conventions, one per field: voltages raw centivolt, current
	// raw deciampere (positive while charging), temperatures raw whole
	// degree C, SOC/SOH raw percent, totals raw 0.1 Ah
	snap.SOC = float64(u16(payload, stOffSOC))
	snap.SOH = float64(u16(payload, stOffSOH))
	snap.MaxVoltageMilliV = int64(u16(payload, stOffMaxVoltage)) * 10
	snap.MinVoltageMilliV = int64(u16(payload, stOffMinVoltage)) * 10
	snap.PackVoltageMilliV = int64(u16(payload, stOffPackVoltage)) * 10
	snap.OutputVoltageMilliV = int64(u16(payload, stOffOutputVoltage)) * 10
	snap.PackCurrentMilliA = int64(s16(payload, stOffCurrent)) * 100
	snap.PowerWatt = float64(snap.PackVoltageMilliV) / 1000 * float64(snap.PackCurrentMilliA) / 1000
	snap.MaxTempC = int(s16(payload, stOffMaxTemp))
	snap.MinTempC = int(s16(payload, stOffMinTemp))
	snap.PackTempC = int(s16(payload, stOffPackTemp))
	snap.ErrorBits = u16(payload, stOffErrors)
	snap.ErrorFlags = DecodeErrorFlags(snap.ErrorBits)
	snap.ParamT = firmwareVersion(payload[stOffParamTMajor], payload[stOffParamTMinor])
	snap.Counters = map[string]float64{
		"charge_total_ah":    float64(u32(payload, stOffChargeTotal)) / 10,
		"discharge_total_ah": float64(u32(payload, stOffDischargeTotal)) / 10,
	}
	return nil
}

// towerDataRegisterCount is the exact size of a tower data block given
// the topology of the identity step.
func towerDataRegisterCount(id Identity) uint16 {
	moduleRegs := moduleHeaderRegs + id.CellsPerModule + id.TempsPerModule
	return uint16(towerSummaryRegs + id.ModulesPerTower*moduleRegs)
}

func (s *session) queryTower(tower int) (*Tower, *CycleError) {
	step := towerStep(tower)

	if err := s.selectTower(step, tower); err != nil {
		return nil, err
	}
	count := towerDataRegisterCount(s.id)
	payload, cerr := s.readRegistersChunked(step, regTowerData, count)
	if cerr != nil {
		return nil, cerr
	}

	if got := int(payload[twOffIndex]); got != tower {
		return nil, protocolErrorf(step, "tower data for tower %d, requested %d", got, tower)
	}
	if got := int(payload[twOffModuleCount]); got != s.id.ModulesPerTower {
		return nil, protocolErrorf(step, "tower reports %d modules, identity said %d", got, s.id.ModulesPerTower)
	}

	t := &Tower{
		Index:                tower,
		MaxCellVoltageMilliV: int(u16(payload, twOffMaxCellVoltage)),
		MinCellVoltageMilliV: int(u16(payload, twOffMinCellVoltage)),
		MaxCellVoltageCellNo: int(payload[twOffMaxCellNo]),
		MinCellVoltageCellNo: int(payload[twOffMinCellNo]),
		MaxCellTempC:         int(s16(payload, twOffMaxCellTemp)),
		MinCellTempC:         int(s16(payload, twOffMinCellTemp)),
		MaxCellTempCellNo:    int(payload[twOffMaxTempCellNo]),
		MinCellTempCellNo:    int(payload[twOffMinTempCellNo]),
		BalancingCellCount:   int(u16(payload, twOffBalancingCount)),
		BalancingFlags:       u16(payload, twOffBalancingFlags),
	}

	voltSum, voltCount := 0, 0
	tempSum, tempCount := 0, 0
	off := towerSummaryRegs * 2
	for m := 1; m <= s.id.ModulesPerTower; m++ {
		// module indices must be contiguous and strictly increasing; a
		// gap means the block is misframed
		if got := int(payload[off]); got != m {
			return nil, protocolErrorf(step, "module index %d, want %d", got, m)
		}
		off += moduleHeaderRegs * 2

		mod := Module{
			Index:              m,
			CellVoltagesMilliV: make([]int, s.id.CellsPerModule),
			CellTemperaturesC:  make([]int, s.id.TempsPerModule),
		}
		for c := 0; c < s.id.CellsPerModule; c++ {
			mv := int(u16(payload, off))
			mod.CellVoltagesMilliV[c] = mv
			voltSum += mv
			voltCount++
			off += 2
		}
		for c := 0; c < s.id.TempsPerModule; c++ {
			tc := int(s16(payload, off))
			mod.CellTemperaturesC[c] = tc
			tempSum += tc
			tempCount++
			off += 2
		}
		t.Modules = append(t.Modules, mod)
	}
	t.AvgCellVoltageMilliV = voltSum / voltCount
	t.AvgCellTempC = tempSum / tempCount

	return t, nil
}

func towerStep(tower int) string {
	return fmt.Sprintf("tower %d", tower)
}

func firmwareVersion(major, minor byte) string {
	return fmt.Sprintf("V%d.%d", major, minor)
}
