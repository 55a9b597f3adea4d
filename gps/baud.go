package gps

import (
	"fmt"
	"strconv"
)

// BaudRate is a serial rate supported by the MT3339.
type BaudRate int

const (
	B4800   BaudRate = 4800
	B9600   BaudRate = 9600
	B14400  BaudRate = 14400
	B19200  BaudRate = 19200
	B38400  BaudRate = 38400
	B57600  BaudRate = 57600
	B115200 BaudRate = 115200
	B230400 BaudRate = 230400
	B460800 BaudRate = 460800
	B921600 BaudRate = 921600
)

var baudRates = [...]BaudRate{B4800, B9600, B14400, B19200, B38400, B57600, B115200, B230400, B460800, B921600}

func BaudRates() []BaudRate {
	out := make([]BaudRate, len(baudRates))
	copy(out, baudRates[:])
	return out
}

func (b BaudRate) Valid() bool {
	for _, r := range baudRates {
		if r == b {
			return true
		}
	}
	return false
}

func (b BaudRate) String() string {
	return strconv.Itoa(int(b))
}

func ParseBaudRate(v int) (BaudRate, error) {
	b := BaudRate(v)
	if !b.Valid() {
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBaud, v)
	}
	return b, nil
}
