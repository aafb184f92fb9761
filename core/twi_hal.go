package core

// TWIAddress is a 7-bit bus address
type TWIAddress uint8

// TWIPeripheral is the hardware capability the TWI driver runs on. Target code
// implements it on top of the chip registers; tests use a simulated bus.
//
// Every method except Configure is called from the TWI interrupt handler (and
// Stop/Stopping/Release also from foreground code), so none may block.
type TWIPeripheral interface {
	// Configure enables the peripheral with acknowledgments and interrupts on
	// and sets the address-match register. Called once from Init.
	Configure(own TWIAddress, generalCall bool) error

	// Status returns the latched status code for the current interrupt.
	Status() Status

	// ReadData returns the contents of the data register.
	ReadData() byte

	// LoadData writes the data register.
	LoadData(b byte)

	// Ack clears the interrupt flag with acknowledgment enabled.
	Ack()

	// Nack clears the interrupt flag with acknowledgment disabled.
	Nack()

	// Start requests a start condition (initiator role).
	Start()

	// Stop requests a stop condition and clears the interrupt flag, leaving
	// acknowledgment enabled. It returns without waiting.
	Stop()

	// Stopping reports whether a requested stop is still being executed.
	Stopping() bool

	// Release re-enables acknowledgment and clears the interrupt flag without
	// generating a stop.
	Release()
}
