package ntp

type TimestampEncoded = uint64

type ShortEncoded = uint32

type Mode byte

const (
	RESERVED Mode = iota
	SYMMETRIC_ACTIVE
	SYMMETRIC_PASSIVE
	CLIENT
	SERVER
	BROADCAST_SERVER
	BROADCAST_CLIENT
	RESERVED_PRIVATE_USE
)

const (
	VERSION byte = 3 // version sent in client requests

	PacketSize = 48 // header length without extension fields
	MTU        = 1300

	// Byte offsets into the header.
	TransmitTimestampOffset = 40
	TransmitFractionOffset  = 44
)
