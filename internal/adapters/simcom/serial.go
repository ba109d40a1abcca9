package simcom

import (
	"strings"
	"time"

	"go.bug.st/serial"

	perr "footfall/internal/platform/errors"
	"footfall/internal/platform/logger"
)

const (
	defaultDevice = "/dev/ttyUSB2"
	defaultBaud   = 115200
	defaultPoll   = 50 * time.Millisecond
	readChunk     = 256
)

// Options configures the serial channel
type Options struct {
	Device string
	Baud   int

	// Poll bounds a single blocking read while collecting; smaller values
	// tighten the Collect window at the cost of more syscalls
	Poll time.Duration
}

// port is the slice of serial.Port the channel uses; a seam for tests
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
	Close() error
}

// SerialChannel is the production Channel over a serial device
type SerialChannel struct {
	port port
	opts Options
	log  logger.Logger
	now  func() time.Time
}

// Open opens the serial device and returns a ready channel
func Open(o Options) (*SerialChannel, error) {
	if o.Device == "" {
		o.Device = defaultDevice
	}
	if o.Baud <= 0 {
		o.Baud = defaultBaud
	}
	if o.Poll <= 0 {
		o.Poll = defaultPoll
	}
	p, err := serial.Open(o.Device, &serial.Mode{BaudRate: o.Baud})
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "open modem %s", o.Device)
	}
	if err := p.SetReadTimeout(o.Poll); err != nil {
		_ = p.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "configure modem %s", o.Device)
	}
	c := newSerialChannel(p, o)
	c.log.Info().Str("device", o.Device).Int("baud", o.Baud).Msg("modem channel open")
	return c, nil
}

func newSerialChannel(p port, o Options) *SerialChannel {
	return &SerialChannel{
		port: p,
		opts: o,
		log:  *logger.Named("simcom"),
		now:  time.Now,
	}
}

// Send writes cmd as one CRLF-terminated line
func (c *SerialChannel) Send(cmd string) error {
	if _, err := c.port.Write([]byte(cmd + "\r\n")); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "modem write %s", cmd)
	}
	return nil
}

// Collect reads whatever the modem produces for at most window. A read error
// after some bytes arrived returns those bytes; with nothing buffered it
// surfaces as an IO error. An empty window result is not an error: silence
// is a legal modem answer and the codecs decide what it means
func (c *SerialChannel) Collect(window time.Duration) (string, error) {
	deadline := c.now().Add(window)
	var b strings.Builder
	buf := make([]byte, readChunk)
	for c.now().Before(deadline) {
		n, err := c.port.Read(buf)
		if n > 0 {
			b.Write(buf[:n])
		}
		if err != nil {
			if b.Len() > 0 {
				break
			}
			return "", perr.Wrapf(err, perr.ErrorCodeIO, "modem read")
		}
	}
	return b.String(), nil
}

// Drain discards buffered input so the next Collect starts clean
func (c *SerialChannel) Drain() {
	if err := c.port.ResetInputBuffer(); err != nil {
		c.log.Debug().Err(err).Msg("modem drain failed")
	}
}

// Close releases the serial device
func (c *SerialChannel) Close() error {
	if err := c.port.Close(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "close modem")
	}
	return nil
}
