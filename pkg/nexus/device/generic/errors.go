package generic

import (
	"errors"
	"fmt"
)

// codeAuthenticationRequired is returned by InitGenericDevice when the device needs the vendor authentication dialog.
const codeAuthenticationRequired = -6

var errorCodeMessages = []string{
	"OK",
	"No valid Device",
	"Memory allocation failure (Channel info)",
	"False information from device",
	"Could not start device",
	"Could not start Data collection thread",
	"Could not start the Device with the specified serial number",
	"Could not load the Generic Device driver properly",
}

var (
	ErrUnsupportedOS        = errors.New("operating system not compatible")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrDeviceInfo           = errors.New("failed to retrieve device info")
	ErrNotOpen              = errors.New("device not open")
)

// Message returns the vendor description for a library return code.
func Message(code int) string {
	if code < 0 {
		code = -code
	}
	if code < len(errorCodeMessages) {
		return errorCodeMessages[code]
	}
	return "Unknown"
}

// Error is a non-zero return code from the Generic Device Interface.
type Error struct {
	Op   string
	Code int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: error code %d: %s", e.Op, e.Code, Message(e.Code))
}
