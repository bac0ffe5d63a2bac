package ntp

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

const (
	EraLength     int64   = 4_294_967_296 // 2^32
	UnixEraOffset int64   = 2_208_988_800 // 1970 - 1900 in seconds
	ShortLength   float64 = 65536         // 2^16
)

const ISO8601Layout = "2006-01-02T15:04:05.000Z"

// TimestampBundle is the decoded Transmit Timestamp in the representations callers report.
type TimestampBundle struct {
	TimestampMillis float64 // Unix epoch milliseconds, sub-millisecond fraction retained
	UnixSeconds     int64   // floor(TimestampMillis / 1000)
	CalendarString  string
	ISO8601         string
	Time            time.Time
}

// DecodeTransmitTimestamp reads bytes 40..47 of a server reply. No plausibility
// checks are made on the result; a server clock before 1970 decodes to a negative time.
func DecodeTransmitTimestamp(encoded []byte) (TimestampBundle, error) {
	if len(encoded) < PacketSize {
		return TimestampBundle{}, fmt.Errorf("%w: got %d", ErrShortPacket, len(encoded))
	}

	seconds := binary.BigEndian.Uint32(encoded[TransmitTimestampOffset:])
	fraction := binary.BigEndian.Uint32(encoded[TransmitFractionOffset:])
	return NewTimestampBundle(seconds, fraction), nil
}

func NewTimestampBundle(seconds, fraction uint32) TimestampBundle {
	secondsUnix := int64(seconds) - UnixEraOffset
	fractionMillis := float64(fraction) / float64(EraLength) * 1000
	millis := float64(secondsUnix)*1000 + fractionMillis

	// Derived from millis rather than the raw fields so every representation
	// agrees with TimestampMillis after float rounding.
	t := MillisToTime(millis)

	return TimestampBundle{
		TimestampMillis: millis,
		UnixSeconds:     int64(math.Floor(millis / 1000)),
		CalendarString:  t.String(),
		ISO8601:         t.UTC().Format(ISO8601Layout),
		Time:            t,
	}
}

func MillisToTime(millis float64) time.Time {
	sec := math.Floor(millis / 1000)
	nsec := math.Round((millis - sec*1000) * 1e6)
	return time.Unix(int64(sec), int64(nsec))
}

func TimeToNTPTimestampEncoded(t time.Time) TimestampEncoded {
	return TimestampEncoded(t.Unix()+UnixEraOffset)<<32 +
		(TimestampEncoded(t.Nanosecond())<<32)/1e9
}

func NTPTimestampToTime(ntpTimestamp TimestampEncoded) time.Time {
	sec := int64(ntpTimestamp>>32) - UnixEraOffset
	nsec := int64(((ntpTimestamp & 0xffff_ffff) * 1e9) >> 32)
	return time.Unix(sec, nsec)
}

func NTPShortToDuration(short ShortEncoded) time.Duration {
	return time.Duration(float64(short) / ShortLength * float64(time.Second))
}
