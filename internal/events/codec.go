package events

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

// Locator kind tags, as carried in the first 4 bytes of a wire Locator.
// These mirror the well-known Fast-DDS locator kind values.
const (
	LocatorKindUDPv4 uint32 = 1
	LocatorKindUDPv6 uint32 = 2
	LocatorKindTCPv4 uint32 = 4
	LocatorKindTCPv6 uint32 = 8
	LocatorKindSHM   uint32 = 16
)

// DecodeGuid renders a 16-byte wire GUID into its canonical string form:
// 12 dot-separated hex octets for the prefix, then the 4-byte entity id as
// "|0xYYYYYYYY". This form is stable across dump/load.
func DecodeGuid(raw [16]byte) string {
	prefix := raw[:12]
	entityID := binary.BigEndian.Uint32(raw[12:16])

	buf := make([]byte, 0, 12*3+11)
	for i, b := range prefix {
		if i > 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, hexByte(b)...)
	}
	return fmt.Sprintf("%s|0x%08X", buf, entityID)
}

func hexByte(b byte) []byte {
	dst := make([]byte, 2)
	hex.Encode(dst, []byte{b})
	return dst
}

// DecodeLocator renders a 28-byte wire locator (kind:u32, port:u32,
// address:16 bytes) into its canonical string form "KIND:[addr]:port". IPv4
// kinds render the address as the last 4 bytes in dotted-quad form; other
// (IPv6-family) kinds render all 16 bytes as colon-separated hex pairs.
func DecodeLocator(raw [28]byte) string {
	kind := binary.BigEndian.Uint32(raw[0:4])
	port := binary.BigEndian.Uint32(raw[4:8])
	addr := raw[8:28]

	var kindName string
	var addrStr string
	switch kind {
	case LocatorKindUDPv4:
		kindName = "UDPv4"
		addrStr = ipv4String(addr)
	case LocatorKindTCPv4:
		kindName = "TCPv4"
		addrStr = ipv4String(addr)
	case LocatorKindUDPv6:
		kindName = "UDPv6"
		addrStr = ipv6HexString(addr)
	case LocatorKindTCPv6:
		kindName = "TCPv6"
		addrStr = ipv6HexString(addr)
	case LocatorKindSHM:
		kindName = "SHM"
		addrStr = ipv6HexString(addr)
	default:
		kindName = fmt.Sprintf("KIND_%d", kind)
		addrStr = ipv6HexString(addr)
	}

	return fmt.Sprintf("%s:[%s]:%d", kindName, addrStr, port)
}

// ipv4String renders the last 4 bytes of a 16-byte locator address as a
// dotted-quad, per Fast-DDS's IPv4-mapped locator address convention.
func ipv4String(addr []byte) string {
	a := addr[len(addr)-4:]
	return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
}

// ipv6HexString renders all 16 address bytes as 8 colon-separated hex groups.
func ipv6HexString(addr []byte) string {
	buf := make([]byte, 0, 8*4+7)
	for i := 0; i < 16; i += 2 {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, hexByte(addr[i])...)
		buf = append(buf, hexByte(addr[i+1])...)
	}
	return string(buf)
}
