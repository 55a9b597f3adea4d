package gps

// MT3339 is a Driver wired to its own SerialDevice: lines read by the device go
// to the driver and commands from the driver go out through the device.
type MT3339 struct {
	*Driver
	*SerialDevice
}

func New(opts ...Option) *MT3339 {
	g := &MT3339{}
	g.SerialDevice = NewSerialDevice(func(line string) { g.Driver.Receive(line) }, opts...)
	g.Driver = NewDriver(g.SerialDevice, opts...)
	return g
}

// Open starts the device at baud and checks that a receiver answers on it.
// The device is left running when the receiver stays silent, so the caller
// can still try another command or Stop it.
func (g *MT3339) Open(address string, baud BaudRate) (bool, error) {
	if err := g.Start(address, baud); err != nil {
		return false, err
	}
	return g.QueryConnection(), nil
}

// Reopen moves the receiver to baud and restarts the device at the new rate.
// It reports false when the receiver did not accept the change; the device
// stays at the old rate in that case.
func (g *MT3339) Reopen(address string, baud BaudRate) (bool, error) {
	if !g.SetBaud(baud) {
		return false, nil
	}
	g.Stop()
	if err := g.Start(address, baud); err != nil {
		return false, err
	}
	return g.QueryConnection(), nil
}
