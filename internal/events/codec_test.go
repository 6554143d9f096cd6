package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arc-self/dds-statsbackend/internal/events"
)

func TestDecodeGuidRendersPrefixAndEntityId(t *testing.T) {
	var raw [16]byte
	for i := 0; i < 12; i++ {
		raw[i] = byte(i + 1)
	}
	raw[12], raw[13], raw[14], raw[15] = 0x00, 0x00, 0x01, 0xC1

	got := events.DecodeGuid(raw)
	assert.Equal(t, "01.02.03.04.05.06.07.08.09.0a.0b.0c|0x000001C1", got)
}

func TestDecodeLocatorUDPv4(t *testing.T) {
	var raw [28]byte
	raw[3] = byte(events.LocatorKindUDPv4)
	raw[4], raw[5], raw[6], raw[7] = 0, 0, 0x1C, 0xE0 // port 7392
	raw[24], raw[25], raw[26], raw[27] = 192, 168, 1, 42

	got := events.DecodeLocator(raw)
	assert.Equal(t, "UDPv4:[192.168.1.42]:7392", got)
}

func TestDecodeLocatorUDPv6(t *testing.T) {
	var raw [28]byte
	raw[3] = byte(events.LocatorKindUDPv6)
	raw[7] = 1 // port 1
	for i := 0; i < 16; i++ {
		raw[8+i] = byte(i)
	}

	got := events.DecodeLocator(raw)
	assert.Equal(t, "UDPv6:[0001:0203:0405:0607:0809:0a0b:0c0d:0e0f]:1", got)
}

func TestDecodeLocatorSHM(t *testing.T) {
	var raw [28]byte
	raw[3] = byte(events.LocatorKindSHM)
	raw[7] = 5
	for i := 0; i < 16; i++ {
		raw[8+i] = 0xAB
	}

	got := events.DecodeLocator(raw)
	assert.Equal(t, "SHM:[abab:abab:abab:abab:abab:abab:abab:abab]:5", got)
}

func TestDecodeLocatorUnknownKindFallsBackToHex(t *testing.T) {
	var raw [28]byte
	raw[3] = 99
	raw[7] = 2
	for i := 0; i < 16; i++ {
		raw[8+i] = byte(i)
	}

	got := events.DecodeLocator(raw)
	assert.Equal(t, "KIND_99:[0001:0203:0405:0607:0809:0a0b:0c0d:0e0f]:2", got)
}
