// Package simcom drives a SIMCOM-style cellular modem over a line-oriented
// AT command channel. The probe owns the conversation; this package owns the
// wire: CRLF-terminated writes, bounded response collection, and the pure
// codecs for the clock and GPS responses
package simcom

import "time"

// AT commands the agent issues. The modem echoes commands when echo is on,
// so codecs must tolerate the echo line in collected payloads
const (
	CmdClock   = "AT+CCLK?"
	CmdGPSOn   = "AT+CGPS=1"
	CmdGPSInfo = "AT+CGPSINFO"
)

// Channel is the text command channel to the modem. Implementations are not
// safe for concurrent use; the probe serializes all traffic
type Channel interface {
	// Send writes one command line
	Send(cmd string) error
	// Collect gathers response text for at most window and returns what arrived
	Collect(window time.Duration) (string, error)
	// Drain discards any unread response bytes
	Drain()
}
