package at

import (
	"fmt"
	"strings"
)

const (
	// Terminal Control
	CRLF = "\r\n"
	// Terminator is appended to every command written to the modem.
	Terminator = "\n\r"

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
	UrcCall           = "RING"

	// Status tokens searched for in replies
	SimPin       = "SIM PIN"
	SimReady     = "READY"
	NetworkReady = "QNSTATUS: 0"
	Unread       = "UNREAD"

	// Reply prefixes
	PrefixCMGL  = "+CMGL: "
	PrefixCMGR  = "+CMGR: "
	PrefixCPBR  = "+CPBR: "
	PrefixCSQ   = "+CSQ: "
	PrefixQCCID = "+QCCID: "
)

// Fixed commands
const (
	CmdAt           = "AT"
	CmdIMEI         = "AT+GSN"
	CmdIMSI         = "AT+CIMI"
	CmdICCID        = "AT+QCCID"
	CmdSignal       = "AT+CSQ"
	CmdNetwork      = "AT+QNSTATUS"
	CmdReboot       = "AT+QPOWD=1"
	CmdSimStatus    = "AT+CPIN?"
	CmdSetTextMode  = "AT+CMGF=1"
	CmdSMSStorage   = `AT+CPMS="SM","SM","SM"`
	CmdCharset      = `AT+CSCS="8859-1"`
	CmdPhonebookSIM = `AT+CPBS="SM"`
	CmdAnswer       = "ATA"
	CmdHangUp       = "ATH"
)

// Command arguments
const (
	FilterAll    = "ALL"
	FilterUnread = "REC UNREAD"
	DeleteAll    = "DEL ALL"
	DeleteRead   = "DEL READ"
	NumberType   = 129
)

type ResponseType int

const (
	TypeFinal ResponseType = iota // OK, ERROR
	TypeURC                       // Asynchronous notifications
	TypeData                      // Intermediate command output (+CSQ: ...)
)

func (t ResponseType) String() string {
	switch t {
	case TypeFinal:
		return "final"
	case TypeURC:
		return "urc"
	default:
		return "data"
	}
}

// SetIMEI writes a new IMEI through the engineering mode command.
func SetIMEI(imei string) string { return fmt.Sprintf(`AT+EGMR=1,7,"%s"`, imei) }

func EnterPIN(pin string) string { return fmt.Sprintf(`AT+CPIN="%s"`, pin) }

func EnterPUK(puk, newPIN string) string { return fmt.Sprintf(`AT+CPIN="%s","%s"`, puk, newPIN) }

func ChangePIN(pin, newPIN string) string {
	return fmt.Sprintf(`AT+CPWD="SC","%s","%s"`, pin, newPIN)
}

// LockSIM toggles the SIM PIN requirement.
func LockSIM(enable bool, pin string) string {
	return fmt.Sprintf(`AT+CLCK="SC",%d,"%s"`, flag(enable), pin)
}

// ListSMS lists stored messages. With keepUnread the modem does not mark
// returned messages as read.
func ListSMS(filter string, keepUnread bool) string {
	return fmt.Sprintf(`AT+CMGL="%s",%d`, filter, flag(keepUnread))
}

func ReadSMS(index int, keepUnread bool) string {
	return fmt.Sprintf("AT+CMGR=%d,%d", index, flag(keepUnread))
}

func DeleteSMS(index int) string { return fmt.Sprintf("AT+CMGD=%d", index) }

func DeleteAllSMS(filter string) string { return fmt.Sprintf(`AT+QMGDA="%s"`, filter) }

func ReadContact(index int) string { return fmt.Sprintf("AT+CPBR=%d", index) }

func WriteContact(index int, name, number string) string {
	return fmt.Sprintf(`AT+CPBW=%d,"%s",%d,"%s"`, index, number, NumberType, name)
}

func Dial(number string) string { return fmt.Sprintf("ATD%s;", number) }

func PressKey(key string) string { return "AT+CKPD=" + key }

// IsTerminal reports whether a reply line ends the exchange. Markers are
// matched as substrings, so "+CME ERROR: 10" terminates as well.
func IsTerminal(line string) bool {
	return strings.Contains(line, OK) || strings.Contains(line, ERROR)
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}
