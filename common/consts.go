package common

// PMTK talker and the packet types the driver speaks. Names follow the MTK
// packet user manual.
const (
	PMTK_TALKER = "PMTK"

	PMTK_ACK                 = "001" // field 0: acknowledged packet type, field 1: status
	PMTK_SET_NMEA_BAUDRATE   = "251"
	PMTK_API_SET_FIX_CTL     = "300"
	PMTK_API_SET_NMEA_OUTPUT = "314"
	PMTK_Q_RELEASE           = "605"
	PMTK_DT_RELEASE          = "705"
)

// PMTK_ACK status codes (field 1).
const (
	PMTK_ACK_INVALID     = "0"
	PMTK_ACK_UNSUPPORTED = "1"
	PMTK_ACK_FAILED      = "2"
	PMTK_ACK_SUCCEEDED   = "3"
)

// PMTK_API_SET_NMEA_OUTPUT carries one enable field per sentence slot.
const PMTK_NMEA_OUTPUT_FIELDS = 19

// Fix interval limits for PMTK_API_SET_FIX_CTL, in milliseconds (10 Hz .. 0.1 Hz).
const (
	FIX_INTERVAL_MIN_MS = 100
	FIX_INTERVAL_MAX_MS = 10000
)
