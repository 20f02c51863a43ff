package topology

import (
	"net"
	"net/netip"
)

const (
	// Ordinals and interface numbers are encoded in single octets.
	maxOrdinal = 255
	// The host IP's last octet is 100+index+1.
	maxLinkIndex = 155
)

// hostIP is 10.0.H.(100+I+1).
func hostIP(hostOrd, idx int) netip.Addr {
	return netip.AddrFrom4([4]byte{10, 0, byte(hostOrd), byte(100 + idx + 1)})
}

// switchFacingIP is 10.0.H.(I+1), the gateway address the host uses.
func switchFacingIP(hostOrd, idx int) netip.Addr {
	return netip.AddrFrom4([4]byte{10, 0, byte(hostOrd), byte(idx + 1)})
}

// hostMAC is 00:04:00:00:HH:II with II the 1-based interface number.
func hostMAC(hostOrd, idx int) net.HardwareAddr {
	return net.HardwareAddr{0x00, 0x04, 0x00, 0x00, byte(hostOrd), byte(idx + 1)}
}

// switchMAC is 00:aa:00:SS:00:HH, the switch port facing host HH.
func switchMAC(swOrd, hostOrd int) net.HardwareAddr {
	return net.HardwareAddr{0x00, 0xaa, 0x00, byte(swOrd), 0x00, byte(hostOrd)}
}

// trunkMAC is 00:aa:00:SS:PP:00, the port of switch SS facing switch PP.
func trunkMAC(swOrd, peerOrd int) net.HardwareAddr {
	return net.HardwareAddr{0x00, 0xaa, 0x00, byte(swOrd), byte(peerOrd), 0x00}
}
