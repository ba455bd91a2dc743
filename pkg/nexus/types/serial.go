package types

import (
	"fmt"
	"strconv"
)

// Serial is a decoded Nexus serial number.
// Characters 0-3 hold the device type, 4-5 the two digit year and 6-9 the index within that year.
type Serial struct {
	Raw        string
	DeviceType string
	Year       int
	Index      int
}

func ParseSerial(s string) (Serial, error) {
	if len(s) < 10 {
		return Serial{}, fmt.Errorf("serial %q too short: need 10 characters, got %d", s, len(s))
	}

	year, err := strconv.Atoi(s[4:6])
	if err != nil {
		return Serial{}, fmt.Errorf("serial %q: invalid year: %w", s, err)
	}
	index, err := strconv.Atoi(s[6:10])
	if err != nil {
		return Serial{}, fmt.Errorf("serial %q: invalid index: %w", s, err)
	}

	return Serial{
		Raw:        s,
		DeviceType: s[0:4],
		Year:       2000 + year,
		Index:      index,
	}, nil
}
