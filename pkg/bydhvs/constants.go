package bydhvs

// Wire constants. The frame layout and register map are a fixed external
// contract reverse-engineered from Be_Connect traffic captures; they must
// not be changed without new golden captures.

const (
	DEFAULT_PORT = 8080

	deviceAddress = 0x01

	fnReadRegisters  = 0x03
	fnWriteRegisters = 0x10

	// fn | exceptionFlag marks a device exception reply
	exceptionFlag = 0x80

	// addr + fn + byteCount
	responseHeaderLen = 3
	checksumLen       = 2
	// addr + fn + register + count + crc
	writeAckFrameLen = 8

	minResponseLen = responseHeaderLen + checksumLen

	// largest register count whose response payload still fits the one
	// byte length field; bigger blocks are read in chunks
	maxRegistersPerRead = 125
)

// Register map of the on-device service.
const (
	regIdentity  = 0x0000
	cntIdentity  = 0x0066
	regStatus    = 0x0500
	cntStatus    = 0x0019
	regCellInfo  = 0x0010
	cntCellInfo  = 0x0003
	regMeasure   = 0x0550
	regTowerData = 0x0558
)

// Identity payload offsets (204 bytes).
const (
	idOffSerial    = 0
	idSerialLen    = 19
	idOffBMUAMajor = 24
	idOffBMUAMinor = 25
	idOffBMUBMajor = 26
	idOffBMUBMinor = 27
	idOffBMSMajor  = 28
	idOffBMSMinor  = 29
	idOffTopology  = 33 // high nibble towers, low nibble modules per tower
	idOffCells     = 34 // cells per module
	idOffTemps     = 35 // temperature sensors per module
	idOffVariant   = 36
	idOffGridType  = 37
)

// Status payload offsets (50 bytes).
const (
	stOffSOC            = 0  // u16, percent
	stOffMaxVoltage     = 2  // u16, centivolt
	stOffMinVoltage     = 4  // u16, centivolt
	stOffSOH            = 6  // u16, percent
	stOffCurrent        = 8  // s16, deciampere, positive while charging
	stOffPackVoltage    = 10 // u16, centivolt
	stOffMaxTemp        = 12 // s16, degree C
	stOffMinTemp        = 14 // s16, degree C
	stOffPackTemp       = 16 // s16, degree C
	stOffErrors         = 26 // u16 bitfield
	stOffParamTMajor    = 28
	stOffParamTMinor    = 29
	stOffOutputVoltage  = 32 // u16, centivolt
	stOffChargeTotal    = 34 // u32, deciamperehour
	stOffDischargeTotal = 38 // u32, deciamperehour
)

// Tower data block layout, in registers. The block starts with a summary
// followed by one module block per module. Module blocks carry a one
// register header with the 1-based module index.
const (
	towerSummaryRegs = 9
	moduleHeaderRegs = 1
)

// Tower summary payload offsets (18 bytes).
const (
	twOffIndex          = 0 // u8 tower index (1-based), echoes the select command
	twOffModuleCount    = 1 // u8
	twOffMaxCellVoltage = 2 // u16, millivolt
	twOffMinCellVoltage = 4 // u16, millivolt
	twOffMaxCellNo      = 6 // u8, 1-based cell number
	twOffMinCellNo      = 7
	twOffMaxCellTemp    = 8  // s16, degree C
	twOffMinCellTemp    = 10 // s16, degree C
	twOffMaxTempCellNo  = 12 // u8
	twOffMinTempCellNo  = 13
	twOffBalancingCount = 14 // u16, number of cells currently balancing
	twOffBalancingFlags = 16 // u16, module balancing bitmask
)

// Per-variant plausibility limits for the topology reported in the
// identity frame. Values outside these ranges mean we are not talking to
// the battery type we think we are.
const (
	maxTowers         = 5
	maxModules        = 8
	maxCellsPerModule = 32
	maxTempsPerModule = 16
)

// BatteryVariant identifies the battery family. It fixes the expected
// shape of the tower data frames.
type BatteryVariant uint8

const (
	VariantUnknown BatteryVariant = 0
	VariantHVS     BatteryVariant = 1
	VariantHMS     BatteryVariant = 2
	VariantLVS     BatteryVariant = 3
)

func (v BatteryVariant) String() string {
	switch v {
	case VariantHVS:
		return "HVS"
	case VariantHMS:
		return "HMS"
	case VariantLVS:
		return "LVS"
	default:
		return "unknown"
	}
}

var gridTypeNames = map[uint8]string{
	0: "single phase",
	1: "three phase",
	2: "off-grid",
	3: "backup",
}

// GridTypeName resolves a grid type code from the identity frame.
func GridTypeName(code uint8) string {
	if name, ok := gridTypeNames[code]; ok {
		return name
	}
	return "unknown"
}

// errorFlagNames maps bits of the status error bitfield, LSB first.
var errorFlagNames = [16]string{
	"cell voltage sensor failure",
	"temperature sensor failure",
	"BIC communication failure",
	"pack voltage sensor failure",
	"current sensor failure",
	"charging MOS failure",
	"discharging MOS failure",
	"pre-charging MOS failure",
	"main relay failure",
	"pre-charging failed",
	"heating device failure",
	"radiator failure",
	"BIC balance failure",
	"cell failure",
	"PCB temperature sensor failure",
	"functional safety failure",
}

// DecodeErrorFlags expands the status error bitfield into readable codes.
func DecodeErrorFlags(bits uint16) []string {
	var flags []string
	for i, name := range errorFlagNames {
		if bits&(1<<uint(i)) != 0 {
			flags = append(flags, name)
		}
	}
	return flags
}
