package status

import (
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/rs/zerolog"
	"github.com/woozymasta/playerhub/internal/audit"
)

// Responder answers every inbound datagram with the local status report.
// It shares only the Counter with the rest of the server.
type Responder struct {
	counter Counter
	sink    audit.Sink
	conn    *net.UDPConn
	log     zerolog.Logger
	label   string
	source  string
	mu      sync.Mutex
	bufSize uint16
}

// NewResponder creates a responder for the region label. A nil sink discards audit records.
func NewResponder(label string, counter Counter, sink audit.Sink, bufSize uint16, log zerolog.Logger) *Responder {
	if sink == nil {
		sink = audit.Nop{}
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	return &Responder{
		counter: counter,
		sink:    sink,
		log:     log,
		label:   label,
		source:  "Admin@" + label,
		bufSize: bufSize,
	}
}

// Listen binds the UDP receive point. A bind failure is fatal for the responder.
func (r *Responder) Listen(addr string) error {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return fmt.Errorf("resolve status address %q: %w", addr, err)
	}

	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		r.log.Error().Err(err).Str("address", addr).Msg("Status responder bind failed")
		r.sink.Record(fmt.Sprintf("Status responder bind failed: %v", err), r.source)
		return fmt.Errorf("bind status responder %q: %w", addr, err)
	}

	r.mu.Lock()
	r.conn = conn
	r.mu.Unlock()

	return nil
}

// Addr returns the bound address, or nil before Listen.
func (r *Responder) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}

	return r.conn.LocalAddr()
}

// Serve runs the receive loop until the socket is closed (returns nil) or an
// I/O failure occurs (returns the error). There is no automatic restart.
func (r *Responder) Serve() error {
	r.mu.Lock()
	conn := r.conn
	r.mu.Unlock()
	if conn == nil {
		return errors.New("status responder is not listening")
	}

	msg := fmt.Sprintf("Starting status responder for %s region on %s", r.label, conn.LocalAddr())
	r.log.Info().Str("address", conn.LocalAddr().String()).Msg("Status responder listening")
	r.sink.Record(msg, r.source)

	buf := make([]byte, r.bufSize)
	for {
		_, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				r.log.Info().Msg("Status responder stopped")
				return nil
			}
			return r.abort("receive", err)
		}

		reply := localReport(r.label, r.counter).String()
		if _, err := conn.WriteToUDP([]byte(reply), src); err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return r.abort("reply", err)
		}

		r.sink.Record(reply, r.source)
		r.log.Trace().
			Str("peer", src.String()).
			Str("reply", reply).
			Msg("Status request answered")
	}
}

// ListenAndServe binds addr and runs the receive loop.
func (r *Responder) ListenAndServe(addr string) error {
	if err := r.Listen(addr); err != nil {
		return err
	}

	return r.Serve()
}

// Close closes the receive point, which ends Serve.
func (r *Responder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.conn == nil {
		return nil
	}

	return r.conn.Close()
}

func (r *Responder) abort(op string, err error) error {
	r.log.Error().Err(err).Str("op", op).Msg("Status responder failed")
	r.sink.Record(fmt.Sprintf("Status responder %s failed: %v", op, err), r.source)
	_ = r.Close()

	return fmt.Errorf("status responder %s: %w", op, err)
}
