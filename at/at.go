package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	Prompt = "> "
	CtrlZ  = "\x1a"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg         = "+CMTI:"
	UrcMessageReport  = "+CDSI:"
	UrcSignalStrength = "+CSQ:"
	UrcCallStatus     = "+CLCC:"
	UrcCall           = "RING"

	// Solicited response prefixes. Each prefix is followed by a single
	// space on the wire, so a response body starts at a fixed offset.
	PrefixSimStatus        = "+CPIN:"
	PrefixSmsSent          = "+CMGS:"
	PrefixSmsRead          = "+CMGR:"
	PrefixSmsList          = "+CMGL:"
	PrefixPreferredStorage = "+CPMS:"
	PrefixPhonebookStorage = "+CPBS:"
	PrefixOperatorScan     = "+COPS:"
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)
