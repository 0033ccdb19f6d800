// Package netutil holds small networking helpers shared by the CLI and
// the peer node.
package netutil

import (
	"net"

	"swarmshare/p2p-share/pkg/logger"
)

// LocalIP returns the LAN address of this host instead of 0.0.0.0. It
// opens a UDP socket toward a public address to learn which interface
// the OS would route through; no packet is actually sent.
func LocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		logger.Sugar.Warnf("[NetUtil] could not detect local IP: %v", err)
		return "127.0.0.1"
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return "127.0.0.1"
	}
	return addr.IP.String()
}
