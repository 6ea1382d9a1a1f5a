package at

// Commands sent during modem initialization and normal operation.
// Read/write commands with parameters are composed with fmt.Sprintf
// by the modem package; only the fixed ones live here.
const (
	CmdAt            = "AT"
	CmdEchoOff       = "ATE0"
	CmdVerboseErrors = "AT+CMEE=2"
	CmdSimStatus     = "AT+CPIN?"
	CmdSetTextMode   = "AT+CMGF=1"
	CmdCCID          = "AT+CCID"
	CmdIMSI          = "AT+CIMI"
	CmdCallStatus    = "AT+CLCC"
	CmdSmsStorage    = "AT+CPMS=?"
	CmdPbStorage     = "AT+CPBS=?"
	CmdOperatorScan  = "AT+COPS=?"
)

// SIM states as they appear inside a +CPIN response line.
const (
	SimReady       = "READY"
	SimNotReady    = "NOT READY"
	SimNotInserted = "NOT INSERTED"
	SimPin         = "SIM PIN"
	SimPuk         = "PIN PUK"
)
