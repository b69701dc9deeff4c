package modem

import (
	"fmt"
	"strconv"
	"strings"

	"i4.energy/across/atgsm/at"
)

// SMSState is the read state derived from a message's raw status field.
type SMSState int

const (
	StateOther SMSState = iota
	StateRead
	StateUnread
)

func (s SMSState) String() string {
	switch s {
	case StateRead:
		return "READ"
	case StateUnread:
		return "UNREAD"
	default:
		return "OTHER"
	}
}

func (s SMSState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SMSState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "READ":
		*s = StateRead
	case "UNREAD":
		*s = StateUnread
	case "OTHER":
		*s = StateOther
	default:
		return fmt.Errorf("unknown SMS state %q", b)
	}
	return nil
}

// SMS represents a text message stored on the modem.
type SMS struct {
	Index  int      `json:"index"`
	Status string   `json:"status"` // "REC UNREAD", "REC READ", "STO UNSENT", "STO SENT"
	State  SMSState `json:"state"`
	// Read is false only for statuses containing UNREAD.
	Read   bool   `json:"read"`
	Sender string `json:"sender"`
	Time   string `json:"time"`
	Text   string `json:"text"`
}

// Contact is a phonebook entry.
type Contact struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Number string `json:"number"`
}

// SignalQuality is the +CSQ report: received signal strength indication
// (0-31, 99 unknown) and bit error rate.
type SignalQuality struct {
	RSSI int `json:"rssi"`
	BER  int `json:"ber"`
}

// ParseSMS decodes one message record: a header line of the form
//
//	<index>,"<status>","<sender>",<alpha>,"<time>"
//
// followed by the content lines. Content that charset cannot decode is kept
// as received. Missing header fields are left empty.
func ParseSMS(raw string, charset Charset) SMS {
	lines := strings.Split(raw, at.CRLF)
	fields := at.SplitFields(lines[0])
	field := func(i int) string {
		if i < len(fields) {
			return at.Unquote(fields[i])
		}
		return ""
	}

	index, _ := strconv.Atoi(field(0))
	status := field(1)
	content := at.Unquote(strings.Join(trimBlankTail(lines[1:]), "\n"))

	return SMS{
		Index:  index,
		Status: status,
		State:  stateOf(status),
		Read:   !strings.Contains(status, at.Unread),
		Sender: field(2),
		Time:   field(4),
		Text:   charset.DecodeOrRaw(content),
	}
}

// ParseSMSList splits a +CMGL reply into messages. A reply without the
// success marker yields an empty list.
func ParseSMSList(reply string, charset Charset) []SMS {
	list := []SMS{}
	if !strings.Contains(reply, at.OK) {
		return list
	}

	var record []string
	flush := func() {
		if record != nil {
			list = append(list, ParseSMS(strings.Join(record, at.CRLF), charset))
		}
		record = nil
	}

	for _, line := range dropFinal(replyLines(reply)) {
		switch {
		case strings.HasPrefix(line, at.PrefixCMGL):
			flush()
			record = []string{strings.TrimPrefix(line, at.PrefixCMGL)}
		case record != nil:
			record = append(record, line)
		}
	}
	flush()
	return list
}

// ParseSMSRead decodes a +CMGR reply for the message stored at index. ok is
// false when the reply holds no message.
func ParseSMSRead(index int, reply string, charset Charset) (SMS, bool) {
	if !strings.Contains(reply, at.OK) {
		return SMS{}, false
	}

	lines := dropFinal(replyLines(reply))
	for i, line := range lines {
		header, found := strings.CutPrefix(line, at.PrefixCMGR)
		if !found {
			continue
		}
		record := append([]string{fmt.Sprintf("%d,%s", index, header)}, lines[i+1:]...)
		return ParseSMS(strings.Join(record, at.CRLF), charset), true
	}
	return SMS{}, false
}

// ParseContact decodes a +CPBR reply of the form
//
//	+CPBR: <index>,"<number>",<type>,"<name>"
//
// ok is false when the reply holds no entry.
func ParseContact(index int, reply string) (Contact, bool) {
	if !strings.Contains(reply, at.OK) {
		return Contact{}, false
	}
	line := strings.TrimPrefix(firstLine(reply), at.PrefixCPBR)
	fields := at.SplitFields(line)
	if len(fields) < 4 {
		return Contact{}, false
	}
	return Contact{
		Index:  index,
		Name:   at.Unquote(fields[3]),
		Number: at.Unquote(fields[1]),
	}, true
}

// ParseSignalQuality reads "+CSQ: <rssi>,<ber>" from the first reply line.
// Anything else yields the zero value.
func ParseSignalQuality(reply string) SignalQuality {
	_, values, found := strings.Cut(firstLine(reply), " ")
	if !found {
		return SignalQuality{}
	}
	rssi, ber, _ := strings.Cut(values, ",")

	var q SignalQuality
	if v, err := strconv.Atoi(strings.TrimSpace(rssi)); err == nil {
		q.RSSI = v
	}
	if v, err := strconv.Atoi(strings.TrimSpace(ber)); err == nil {
		q.BER = v
	}
	return q
}

// ParseSignal returns the RSSI of a +CSQ reply, 0 when there is none.
func ParseSignal(reply string) int {
	return ParseSignalQuality(reply).RSSI
}

// FirstLine returns the information line of a successful reply, without
// a "+XXX: " prefix if the modem adds one. It returns "" for replies that
// lack the success marker or carry no information line.
func FirstLine(reply string) string {
	if !strings.Contains(reply, at.OK) {
		return ""
	}
	line := replyLines(reply)[0]
	if at.IsTerminal(line) {
		return ""
	}
	if strings.HasPrefix(strings.TrimSpace(line), "+") {
		if _, value, found := strings.Cut(line, ":"); found {
			line = value
		}
	}
	return strings.TrimSpace(line)
}

func firstLine(reply string) string {
	return strings.TrimSpace(replyLines(reply)[0])
}

func stateOf(status string) SMSState {
	switch {
	case strings.Contains(status, at.Unread):
		return StateUnread
	case strings.Contains(status, "READ"):
		return StateRead
	default:
		return StateOther
	}
}

func replyLines(reply string) []string {
	return strings.Split(strings.Trim(reply, at.CRLF), at.CRLF)
}

// dropFinal removes the final result code line, if present.
func dropFinal(lines []string) []string {
	if n := len(lines); n > 0 && at.IsTerminal(lines[n-1]) {
		return lines[:n-1]
	}
	return lines
}

func trimBlankTail(lines []string) []string {
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}
