package ntp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrShortPacket = errors.New("packet shorter than 48 bytes")

type Header struct {
	Leap    byte /* leap indicator */
	Version byte /* version number */
	Mode    Mode /* mode */
	NtpFieldsEncoded
}

type NtpFieldsEncoded struct {
	Stratum   byte             /* stratum */
	Poll      int8             /* poll interval */
	Precision int8             /* precision */
	Rootdelay ShortEncoded     /* root delay */
	Rootdisp  ShortEncoded     /* root dispersion */
	Refid     ShortEncoded     /* reference ID */
	Reftime   TimestampEncoded /* reference time */
	Org       TimestampEncoded /* origin timestamp */
	Rec       TimestampEncoded /* receive timestamp */
	Xmt       TimestampEncoded /* transmit timestamp */
}

// EncodeHeader writes the fixed 48-byte header. Extension fields are never written.
func EncodeHeader(header Header) []byte {
	firstByte := (header.Leap << 6) | (header.Version << 3) | byte(header.Mode)

	var buffer bytes.Buffer
	buffer.Grow(PacketSize)
	buffer.WriteByte(firstByte)
	binary.Write(&buffer, binary.BigEndian, &header.NtpFieldsEncoded)
	return buffer.Bytes()
}

// EncodeClientRequest returns the client-mode request: 0x1B followed by 47 zero bytes.
func EncodeClientRequest() []byte {
	return EncodeHeader(Header{Version: VERSION, Mode: CLIENT})
}

func DecodeHeader(encoded []byte) (*Header, error) {
	if len(encoded) < PacketSize {
		return nil, fmt.Errorf("%w: got %d", ErrShortPacket, len(encoded))
	}

	reader := bytes.NewReader(encoded[:PacketSize])
	firstByte, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}

	fieldsEncoded := NtpFieldsEncoded{}
	if err := binary.Read(reader, binary.BigEndian, &fieldsEncoded); err != nil {
		return nil, err
	}

	return &Header{
		Leap:             firstByte >> 6,
		Version:          (firstByte >> 3) & 0b111,
		Mode:             Mode(firstByte & 0b111),
		NtpFieldsEncoded: fieldsEncoded,
	}, nil
}
