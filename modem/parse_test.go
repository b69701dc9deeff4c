package modem_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"i4.energy/across/atgsm/modem"
)

func TestParseSMS(t *testing.T) {
	raw := `1,"REC UNREAD","+15551234567",,"21/01/01,12:00:00+00"` + "\r\n" + `"HELLO"`

	sms := modem.ParseSMS(raw, modem.UCS2)

	assert.Equal(t, modem.SMS{
		Index:  1,
		Status: "REC UNREAD",
		State:  modem.StateUnread,
		Read:   false,
		Sender: "+15551234567",
		Time:   "21/01/01,12:00:00+00",
		Text:   "HELLO",
	}, sms)
}

func TestParseSMSStates(t *testing.T) {
	tests := []struct {
		status string
		state  modem.SMSState
		read   bool
	}{
		{"REC UNREAD", modem.StateUnread, false},
		{"REC READ", modem.StateRead, true},
		{"STO UNSENT", modem.StateOther, true},
		{"STO SENT", modem.StateOther, true},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			sms := modem.ParseSMS(`7,"`+tt.status+`","+1",,"t"`+"\r\nx", modem.Raw)
			assert.Equal(t, tt.state, sms.State)
			assert.Equal(t, tt.read, sms.Read)
		})
	}
}

func TestParseSMSMultilineAndShortHeader(t *testing.T) {
	sms := modem.ParseSMS("3,\"REC READ\"\r\nfirst line\r\nsecond line\r\n\r\n", modem.Raw)

	assert.Equal(t, 3, sms.Index)
	assert.Empty(t, sms.Sender)
	assert.Empty(t, sms.Time)
	assert.Equal(t, "first line\nsecond line", sms.Text)
}

func TestParseSMSList(t *testing.T) {
	t.Run("Reply without OK is empty", func(t *testing.T) {
		for _, reply := range []string{"", "ERROR", "+CMS ERROR: 321"} {
			list := modem.ParseSMSList(reply, modem.UCS2)
			assert.NotNil(t, list)
			assert.Empty(t, list)
		}
	})

	t.Run("Single unread message", func(t *testing.T) {
		reply := "+CMGL: 1,\"REC UNREAD\",\"+15551234567\",,\"21/01/01,12:00:00+00\"\r\n\"HELLO\"\r\nOK\r\n"

		list := modem.ParseSMSList(reply, modem.UCS2)

		assert.Equal(t, []modem.SMS{{
			Index:  1,
			Status: "REC UNREAD",
			State:  modem.StateUnread,
			Read:   false,
			Sender: "+15551234567",
			Time:   "21/01/01,12:00:00+00",
			Text:   "HELLO",
		}}, list)
	})

	t.Run("No messages", func(t *testing.T) {
		assert.Empty(t, modem.ParseSMSList("OK", modem.UCS2))
	})

	t.Run("Several messages", func(t *testing.T) {
		reply := `+CMGL: 1,"REC UNREAD","+15551234567",,"21/01/01,12:00:00+00"` + "\r\n" +
			"00480069\r\n" +
			`+CMGL: 4,"REC READ","+15557654321",,"21/01/02,08:30:00+00"` + "\r\n" +
			"not hex\r\n" +
			"\r\nOK"

		list := modem.ParseSMSList(reply, modem.UCS2)

		require.Len(t, list, 2)
		assert.Equal(t, 1, list[0].Index)
		assert.Equal(t, "Hi", list[0].Text)
		assert.Equal(t, 4, list[1].Index)
		assert.Equal(t, "not hex", list[1].Text)
		assert.Equal(t, "+15557654321", list[1].Sender)
	})
}

func TestParseSMSRead(t *testing.T) {
	reply := `+CMGR: "REC UNREAD","+15551234567",,"21/01/01,12:00:00+00"` + "\r\nHELLO\r\n\r\nOK"

	sms, ok := modem.ParseSMSRead(9, reply, modem.Raw)
	require.True(t, ok)
	assert.Equal(t, 9, sms.Index)
	assert.Equal(t, "REC UNREAD", sms.Status)
	assert.False(t, sms.Read)
	assert.Equal(t, "HELLO", sms.Text)

	_, ok = modem.ParseSMSRead(9, "OK", modem.Raw)
	assert.False(t, ok)

	_, ok = modem.ParseSMSRead(9, "+CMS ERROR: 321", modem.Raw)
	assert.False(t, ok)
}

func TestParseContact(t *testing.T) {
	contact, ok := modem.ParseContact(1, "+CPBR: 1,\"+15551234567\",145,\"Alice, home\"\r\n\r\nOK")
	require.True(t, ok)
	assert.Equal(t, modem.Contact{Index: 1, Name: "Alice, home", Number: "+15551234567"}, contact)

	for _, reply := range []string{"", "OK", "ERROR", "+CPBR: 1\r\nOK"} {
		contact, ok := modem.ParseContact(1, reply)
		assert.False(t, ok, reply)
		assert.Equal(t, modem.Contact{}, contact, reply)
	}
}

func TestParseSignal(t *testing.T) {
	tests := []struct {
		reply string
		want  modem.SignalQuality
	}{
		{"+CSQ: 15,99\r\n\r\nOK", modem.SignalQuality{RSSI: 15, BER: 99}},
		{"+CSQ: 31,0", modem.SignalQuality{RSSI: 31, BER: 0}},
		{"", modem.SignalQuality{}},
		{"ERROR", modem.SignalQuality{}},
		{"+CSQ: x,y", modem.SignalQuality{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, modem.ParseSignalQuality(tt.reply), tt.reply)
		assert.Equal(t, tt.want.RSSI, modem.ParseSignal(tt.reply), tt.reply)
	}
}

func TestFirstLine(t *testing.T) {
	tests := map[string]string{
		"490154203237518\r\n\r\nOK":         "490154203237518",
		"+QCCID: 8986000000\r\n\r\nOK":      "8986000000",
		"  001010123456789  \r\nOK":         "001010123456789",
		"OK":                                "",
		"490154203237518":                   "",
		"+CME ERROR: 10":                    "",
		"\r\n490154203237518\r\n\r\nOK\r\n": "490154203237518",
		"+CMGL: \r\nOK":                     "",
		"+QCCID:8986000000\r\nOK":           "8986000000",
	}
	for reply, want := range tests {
		assert.Equal(t, want, modem.FirstLine(reply), "%q", reply)
	}
}

func TestSMSStateMarshalsAsText(t *testing.T) {
	sms := modem.SMS{Index: 2, Status: "REC READ", State: modem.StateRead, Read: true}

	b, err := json.Marshal(sms)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"index":2,"status":"REC READ","state":"READ","read":true,"sender":"","time":"","text":""}`,
		string(b))

	var decoded modem.SMS
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, sms, decoded)

	for _, state := range []modem.SMSState{modem.StateRead, modem.StateUnread, modem.StateOther} {
		text, err := state.MarshalText()
		require.NoError(t, err)

		var got modem.SMSState
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, state, got)
	}

	var state modem.SMSState
	assert.Error(t, state.UnmarshalText([]byte("DELETED")))
}
