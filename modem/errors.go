package modem

import "errors"

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when the Dialer hands back no Transport.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when Close is called on a Modem that has
	// already been closed, and to every command submitted or still waiting
	// for its turn once Close has started.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrNoResponse is returned when nothing at all arrives within the read
	// timeout after a command has been written.
	ErrNoResponse = errors.New("no response from modem")

	// ErrResponseTimeout is returned when the modem started answering but
	// went silent before sending a final result code.
	ErrResponseTimeout = errors.New("timeout before end of response")

	// ErrDeviceError is returned when the reply ends with an error marker
	// (ERROR, +CME ERROR, +CMS ERROR). The reply text is still returned.
	ErrDeviceError = errors.New("modem reported error")

	// ErrSIMNotReady is returned by WaitForSIMReady when the SIM card does not
	// report READY within the polling budget.
	ErrSIMNotReady = errors.New("SIM not ready")
)

// isProtocolError reports whether err belongs to the exchange itself rather
// than to the transport underneath it. Device operations degrade these to
// a reply without the success marker.
func isProtocolError(err error) bool {
	return errors.Is(err, ErrNoResponse) ||
		errors.Is(err, ErrResponseTimeout) ||
		errors.Is(err, ErrDeviceError)
}
