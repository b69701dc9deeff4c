package modem

import (
	"encoding/hex"
	"strings"

	"github.com/warthog618/sms/encoding/gsm7"
	"github.com/warthog618/sms/encoding/ucs2"
	"golang.org/x/text/encoding/charmap"
)

// Charset converts SMS payload text between the modem's configured character
// set and Go strings.
type Charset struct {
	// Name is the value the modem knows the character set by (AT+CSCS).
	Name   string
	Decode func(string) (string, error)
	Encode func(string) (string, error)
}

var (
	// UCS2 handles hex encoded UCS-2 payloads such as "00480069".
	UCS2 = Charset{Name: "UCS2", Decode: decodeUCS2, Encode: encodeUCS2}

	// GSM7 handles hex encoded, packed GSM 7-bit default alphabet payloads.
	GSM7 = Charset{Name: "GSM", Decode: decodeGSM7, Encode: encodeGSM7}

	// Raw passes text through unchanged.
	Raw = Charset{Name: "IRA", Decode: passThrough, Encode: passThrough}
)

// DecodeOrRaw decodes s and falls back to s itself when it is not a valid
// payload for the character set.
func (c Charset) DecodeOrRaw(s string) string {
	if c.Decode == nil {
		return s
	}
	text, err := c.Decode(s)
	if err != nil {
		return s
	}
	return text
}

func decodeUCS2(s string) (string, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", err
	}
	runes, err := ucs2.Decode(b)
	if err != nil {
		return "", err
	}
	return string(runes), nil
}

func encodeUCS2(s string) (string, error) {
	return strings.ToUpper(hex.EncodeToString(ucs2.Encode([]rune(s)))), nil
}

func decodeGSM7(s string) (string, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return "", err
	}
	text, err := gsm7.Decode(gsm7.Unpack7Bit(b, 0))
	if err != nil {
		return "", err
	}
	return string(text), nil
}

func encodeGSM7(s string) (string, error) {
	septets, err := gsm7.Encode([]byte(s))
	if err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(gsm7.Pack7Bit(septets, 0))), nil
}

func passThrough(s string) (string, error) {
	return s, nil
}

// decodeLine converts a reply line from ISO-8859-1, the character set the
// session selects with AT+CSCS.
func decodeLine(b []byte) string {
	text, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(text)
}
