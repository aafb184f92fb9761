package core

// mockTWI is a test implementation of TWIPeripheral. Tests set status/data
// and call HandleInterrupt, then inspect what the driver did.
type mockTWI struct {
	own         TWIAddress
	generalCall bool
	configured  bool

	status Status
	data   byte

	loaded  []byte   // every LoadData
	acks    []bool   // every Ack (true) / Nack (false)
	actions []string // every call that releases the interrupt flag

	stopSpins int // Stopping reports true this many times after Stop
	stopping  int
}

func newMockTWI() *mockTWI {
	return &mockTWI{}
}

func (m *mockTWI) Configure(own TWIAddress, generalCall bool) error {
	m.own = own
	m.generalCall = generalCall
	m.configured = true
	return nil
}

func (m *mockTWI) Status() Status { return m.status }
func (m *mockTWI) ReadData() byte { return m.data }
func (m *mockTWI) LoadData(b byte) { m.loaded = append(m.loaded, b) }

func (m *mockTWI) Ack() {
	m.acks = append(m.acks, true)
	m.actions = append(m.actions, "ack")
}

func (m *mockTWI) Nack() {
	m.acks = append(m.acks, false)
	m.actions = append(m.actions, "nack")
}

func (m *mockTWI) Start() { m.actions = append(m.actions, "start") }

func (m *mockTWI) Stop() {
	m.stopping = m.stopSpins
	m.actions = append(m.actions, "stop")
}

func (m *mockTWI) Stopping() bool {
	if m.stopping < 0 {
		return true // stuck forever
	}
	if m.stopping > 0 {
		m.stopping--
		return true
	}
	return false
}

func (m *mockTWI) Release() { m.actions = append(m.actions, "release") }

func (m *mockTWI) lastAction() string {
	if len(m.actions) == 0 {
		return ""
	}
	return m.actions[len(m.actions)-1]
}

func (m *mockTWI) lastAck() bool {
	return len(m.acks) > 0 && m.acks[len(m.acks)-1]
}

// fire simulates one TWI interrupt
func fire(c *Controller, m *mockTWI, status Status, data byte) {
	m.status = status
	m.data = data
	c.HandleInterrupt()
}

// newTestController returns an initialized controller on a mock peripheral
func newTestController() (*Controller, *mockTWI) {
	m := newMockTWI()
	c := NewController(m, nil)
	if err := c.Init(TWIConfig{}); err != nil {
		panic(err)
	}
	return c, m
}
