package serialbridge

const (
	CommRequestCharacter  = '>'
	CommResponseCharacter = '<'
	CommEndCharacter      = '\n'
	CommAltEndCharacter   = '\r'
	CommTxBufferLen       = 16
	CommRxBufferLen       = 128
)

// Status codes carried by <ER:xx responses.
const (
	StatusBadRequest byte = 0x01 // malformed request line or odd hex digit count
	StatusSPIFault   byte = 0x02 // bridge failed to clock the frame out
	StatusBusy       byte = 0x03 // previous frame still in flight
)
