// Package sim is a software model of the TWI peripheral and of a remote bus
// initiator. It drives a core.Controller with the same status-code sequences
// the hardware produces, so the driver can be exercised without a board.
package sim

import "motionbus/core"

// Peripheral implements core.TWIPeripheral in memory. It models the parts of
// the hardware the driver depends on: the address match, the acknowledge
// enable bit, the data register and the stop flag.
type Peripheral struct {
	own         core.TWIAddress
	generalCall bool
	enabled     bool

	status core.Status
	data   byte // byte presented by the bus for the current event
	out    byte // data register as loaded by the driver

	ackEnabled bool

	// StuckStop keeps the stop flag set forever, as on a bus held low
	StuckStop bool

	loaded   []byte
	starts   int
	stops    int
	releases int
}

// NewPeripheral returns an unconfigured peripheral. It does not respond to
// any address until the controller configures it.
func NewPeripheral() *Peripheral {
	return &Peripheral{}
}

func (p *Peripheral) Configure(own core.TWIAddress, generalCall bool) error {
	p.own = own
	p.generalCall = generalCall
	p.enabled = true
	p.ackEnabled = true
	return nil
}

func (p *Peripheral) Status() core.Status { return p.status }
func (p *Peripheral) ReadData() byte { return p.data }

func (p *Peripheral) LoadData(b byte) {
	p.out = b
	p.loaded = append(p.loaded, b)
}

func (p *Peripheral) Ack() { p.ackEnabled = true }
func (p *Peripheral) Nack() { p.ackEnabled = false }

func (p *Peripheral) Start() { p.starts++ }

// Stop requests a stop condition. Acknowledgment stays enabled.
func (p *Peripheral) Stop() {
	p.stops++
	p.ackEnabled = true
}

func (p *Peripheral) Stopping() bool {
	return p.StuckStop
}

func (p *Peripheral) Release() {
	p.releases++
	p.ackEnabled = true
}

// AckEnabled reports whether the next byte or address would be acknowledged
func (p *Peripheral) AckEnabled() bool {
	return p.ackEnabled
}

// Loaded returns every byte the driver wrote to the data register
func (p *Peripheral) Loaded() []byte {
	return append([]byte(nil), p.loaded...)
}

// Counts returns how often the driver asked for a start, a stop and a release
func (p *Peripheral) Counts() (starts, stops, releases int) {
	return p.starts, p.stops, p.releases
}

// ClearLog forgets the recorded data register writes and counters
func (p *Peripheral) ClearLog() {
	p.loaded = nil
	p.starts, p.stops, p.releases = 0, 0, 0
}

// matches reports whether a remote initiator addressing addr gets an
// acknowledgment
func (p *Peripheral) matches(addr core.TWIAddress, read bool) (generalCall, ok bool) {
	if !p.enabled || !p.ackEnabled {
		return false, false
	}
	if addr == p.own {
		return false, true
	}
	if addr == core.GeneralCallAddress && p.generalCall && !read {
		return true, true
	}
	return false, false
}
