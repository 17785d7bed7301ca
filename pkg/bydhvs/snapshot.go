package bydhvs

import "time"

// Endpoint is the immutable per-cycle connection configuration.
type Endpoint struct {
	Host    string
	Port    uint16
	Timeout time.Duration
}

// Identity is the variant and topology information reported by the
// battery. The counts fix the expected size of every tower data frame of
// the same cycle.
type Identity struct {
	Serial          string
	Variant         BatteryVariant
	BMUFirmwareA    string
	BMUFirmwareB    string
	BMSFirmware     string
	GridType        uint8
	Towers          int
	ModulesPerTower int
	CellsPerModule  int
	TempsPerModule  int
}

// Snapshot is the complete decoded result of one poll cycle. It is either
// fully populated or not produced at all.
type Snapshot struct {
	Taken    time.Time
	Identity Identity

	SOC float64 // percent
	SOH float64 // percent

	PackVoltageMilliV   int64
	PackCurrentMilliA   int64 // positive while charging
	PowerWatt           float64
	MaxVoltageMilliV    int64
	MinVoltageMilliV    int64
	OutputVoltageMilliV int64

	MaxTempC  int
	MinTempC  int
	PackTempC int

	ErrorBits  uint16
	ErrorFlags []string
	ParamT     string

	// Diagnostic counters keyed by name, raw protocol units noted per key.
	Counters map[string]float64

	Towers []Tower
}

// Tower is one physical enclosure with its module telemetry.
type Tower struct {
	Index int // 1-based, as on the wire

	MaxCellVoltageMilliV int
	MinCellVoltageMilliV int
	AvgCellVoltageMilliV int
	MaxCellVoltageCellNo int
	MinCellVoltageCellNo int

	MaxCellTempC      int
	MinCellTempC      int
	AvgCellTempC      int
	MaxCellTempCellNo int
	MinCellTempCellNo int

	BalancingCellCount int
	BalancingFlags     uint16

	Modules []Module
}

// Module is the base addressable telemetry unit: the cell arrays of one
// module. Array lengths are fixed by the identity of the same cycle.
type Module struct {
	Index              int // 1-based, contiguous within the tower
	CellVoltagesMilliV []int
	CellTemperaturesC  []int
}

// CellVoltageDeltaMilliV is the spread between the highest and lowest
// cell voltage across all towers.
func (s *Snapshot) CellVoltageDeltaMilliV() int {
	max, min := 0, 0
	for i := range s.Towers {
		t := &s.Towers[i]
		if i == 0 || t.MaxCellVoltageMilliV > max {
			max = t.MaxCellVoltageMilliV
		}
		if i == 0 || t.MinCellVoltageMilliV < min {
			min = t.MinCellVoltageMilliV
		}
	}
	return max - min
}
