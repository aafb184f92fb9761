package core

// Status is the TWI status code latched by the hardware for each bus event.
// Values follow the AVR TWSR encoding with the prescaler bits masked off.
type Status uint8

// StatusMask selects the status bits of the raw status register
const StatusMask = 0xF8

// Initiator (master) codes
const (
	StatusStart      Status = 0x08 // start condition transmitted
	StatusRepStart   Status = 0x10 // repeated start transmitted
	StatusMTSlaAck   Status = 0x18 // SLA+W sent, ACK received
	StatusMTSlaNack  Status = 0x20 // SLA+W sent, NACK received
	StatusMTDataAck  Status = 0x28 // data sent, ACK received
	StatusMTDataNack Status = 0x30 // data sent, NACK received
	StatusArbLost    Status = 0x38 // arbitration lost in SLA+R/W or data
	StatusMRSlaAck   Status = 0x40 // SLA+R sent, ACK received
	StatusMRSlaNack  Status = 0x48 // SLA+R sent, NACK received
	StatusMRDataAck  Status = 0x50 // data received, ACK returned
	StatusMRDataNack Status = 0x58 // data received, NACK returned
)

// Slave receiver codes
const (
	StatusSRSlaAck          Status = 0x60 // own SLA+W received, ACK returned
	StatusSRArbLostSlaAck   Status = 0x68 // arbitration lost, own SLA+W received
	StatusSRGCallAck        Status = 0x70 // general call received, ACK returned
	StatusSRArbLostGCallAck Status = 0x78 // arbitration lost, general call received
	StatusSRDataAck         Status = 0x80 // data received, ACK returned
	StatusSRDataNack        Status = 0x88 // data received, NACK returned
	StatusSRGCallDataAck    Status = 0x90 // general call data received, ACK returned
	StatusSRGCallDataNack   Status = 0x98 // general call data received, NACK returned
	StatusSRStop            Status = 0xA0 // stop or repeated start while addressed
)

// Slave transmitter codes
const (
	StatusSTSlaAck        Status = 0xA8 // own SLA+R received, ACK returned
	StatusSTArbLostSlaAck Status = 0xB0 // arbitration lost, own SLA+R received
	StatusSTDataAck       Status = 0xB8 // data sent, ACK received
	StatusSTDataNack      Status = 0xC0 // data sent, NACK received
	StatusSTLastData      Status = 0xC8 // last data sent, ACK received
)

// Miscellaneous codes
const (
	StatusNoInfo   Status = 0xF8 // no relevant state information
	StatusBusError Status = 0x00 // illegal start or stop condition
)

func (s Status) String() string {
	switch s {
	case StatusStart:
		return "START"
	case StatusRepStart:
		return "REP_START"
	case StatusMTSlaAck:
		return "MT_SLA_ACK"
	case StatusMTSlaNack:
		return "MT_SLA_NACK"
	case StatusMTDataAck:
		return "MT_DATA_ACK"
	case StatusMTDataNack:
		return "MT_DATA_NACK"
	case StatusArbLost:
		return "ARB_LOST"
	case StatusMRSlaAck:
		return "MR_SLA_ACK"
	case StatusMRSlaNack:
		return "MR_SLA_NACK"
	case StatusMRDataAck:
		return "MR_DATA_ACK"
	case StatusMRDataNack:
		return "MR_DATA_NACK"
	case StatusSRSlaAck:
		return "SR_SLA_ACK"
	case StatusSRArbLostSlaAck:
		return "SR_ARB_LOST_SLA_ACK"
	case StatusSRGCallAck:
		return "SR_GCALL_ACK"
	case StatusSRArbLostGCallAck:
		return "SR_ARB_LOST_GCALL_ACK"
	case StatusSRDataAck:
		return "SR_DATA_ACK"
	case StatusSRDataNack:
		return "SR_DATA_NACK"
	case StatusSRGCallDataAck:
		return "SR_GCALL_DATA_ACK"
	case StatusSRGCallDataNack:
		return "SR_GCALL_DATA_NACK"
	case StatusSRStop:
		return "SR_STOP"
	case StatusSTSlaAck:
		return "ST_SLA_ACK"
	case StatusSTArbLostSlaAck:
		return "ST_ARB_LOST_SLA_ACK"
	case StatusSTDataAck:
		return "ST_DATA_ACK"
	case StatusSTDataNack:
		return "ST_DATA_NACK"
	case StatusSTLastData:
		return "ST_LAST_DATA"
	case StatusNoInfo:
		return "NO_INFO"
	case StatusBusError:
		return "BUS_ERROR"
	}
	return "UNKNOWN(0x" + hex8(uint8(s)) + ")"
}

// BusMode is the driver's role on the bus
type BusMode uint8

const (
	ModeReady BusMode = iota
	ModeMasterReceive
	ModeMasterTransmit
	ModeSlaveReceive
	ModeSlaveTransmit
)

func (m BusMode) String() string {
	switch m {
	case ModeReady:
		return "ready"
	case ModeMasterReceive:
		return "master_rx"
	case ModeMasterTransmit:
		return "master_tx"
	case ModeSlaveReceive:
		return "slave_rx"
	case ModeSlaveTransmit:
		return "slave_tx"
	}
	return "mode(" + utoa(uint32(m)) + ")"
}
