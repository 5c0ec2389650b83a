package status

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/woozymasta/playerhub/internal/audit"
	"github.com/woozymasta/playerhub/internal/models"
	"github.com/woozymasta/playerhub/internal/region"
	"golang.org/x/sync/errgroup"
)

// DefaultTimeout bounds the wait for a single peer reply.
const DefaultTimeout = 5 * time.Second

// Outcome classifies how one region's branch of a round ended.
type Outcome uint8

const (
	// OutcomeOK means a report was obtained.
	OutcomeOK Outcome = iota
	// OutcomeTimeout means the peer did not reply in time.
	OutcomeTimeout
	// OutcomeError means a transport error occurred.
	OutcomeError
)

// Target is one region taking part in a round. Local targets are counted in
// process; remote ones are queried at Addr.
type Target struct {
	Region region.Identity
	Addr   string
	Local  bool
}

// Targets lists the local region first, followed by its peers in canonical
// order, addressing peers at peerHost on their responder port.
func Targets(table *region.Table, localCode, peerHost string) []Target {
	peers := table.Peers(localCode)
	out := make([]Target, 0, len(peers)+1)

	if local, err := table.Lookup(localCode); err == nil {
		out = append(out, Target{Region: local, Local: true})
	}
	for _, r := range peers {
		out = append(out, Target{
			Region: r,
			Addr:   net.JoinHostPort(peerHost, strconv.Itoa(r.Port)),
		})
	}

	return out
}

// Result is the outcome of one region's branch.
type Result struct {
	Report  *models.StatusReport
	Err     error
	Region  string
	Text    string
	Outcome Outcome
}

// Report is the merged output of a round: the local result, then one result per peer.
type Report struct {
	Round   string
	Results []Result
}

// String joins the per-region lines with newlines.
func (r Report) String() string {
	lines := make([]string, len(r.Results))
	for i, res := range r.Results {
		lines[i] = res.Text
	}

	return strings.Join(lines, "\n")
}

// Aggregator runs status rounds across the local region and its peers.
type Aggregator struct {
	counter Counter
	sink    audit.Sink
	log     zerolog.Logger
	targets []Target
	timeout time.Duration
	bufSize uint16
}

// NewAggregator creates an aggregator over targets. Zero timeout or buffer size
// selects the defaults; a nil sink discards audit records.
func NewAggregator(targets []Target, counter Counter, sink audit.Sink, timeout time.Duration, bufSize uint16, log zerolog.Logger) *Aggregator {
	if sink == nil {
		sink = audit.Nop{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	t := make([]Target, len(targets))
	copy(t, targets)

	return &Aggregator{
		counter: counter,
		sink:    sink,
		log:     log,
		targets: t,
		timeout: timeout,
		bufSize: bufSize,
	}
}

// Collect runs one round. Every branch starts together and is individually
// time-boxed; Collect returns once all branches have finished, whatever their outcome.
func (a *Aggregator) Collect(ctx context.Context) Report {
	round := uuid.NewString()
	logger := a.log.With().Str("round", round).Logger()
	results := make([]Result, len(a.targets))

	var g errgroup.Group
	for i, t := range a.targets {
		i, t := i, t
		g.Go(func() error {
			if t.Local {
				report := localReport(t.Region.Label, a.counter)
				results[i] = Result{Region: t.Region.Code, Report: &report, Text: report.String()}
				a.sink.Record(results[i].Text, "Admin@"+t.Region.Code)
				return nil
			}

			results[i] = a.query(ctx, t)
			logger.Debug().
				Str("peer", t.Region.Code).
				Str("address", t.Addr).
				Uint8("outcome", uint8(results[i].Outcome)).
				Msg("Peer status collected")
			a.sink.Record(results[i].Text, "Admin@"+t.Region.Code)
			return nil
		})
	}
	_ = g.Wait()

	logger.Info().Int("regions", len(results)).Msg("Status round completed")

	return Report{Round: round, Results: results}
}

// query sends one request datagram to the peer and waits for one reply.
func (a *Aggregator) query(ctx context.Context, t Target) Result {
	res := Result{Region: t.Region.Code}
	fail := func(outcome Outcome, err error, text string) Result {
		res.Outcome = outcome
		res.Err = err
		res.Text = text
		return res
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "udp", t.Addr)
	if err != nil {
		return fail(OutcomeError, err, errorText(t, err))
	}
	defer func() { _ = conn.Close() }()

	deadline := time.Now().Add(a.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return fail(OutcomeError, err, errorText(t, err))
	}

	// Cancellation interrupts the pending read by expiring the deadline.
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	if _, err := conn.Write([]byte(Request)); err != nil {
		return fail(OutcomeError, err, errorText(t, err))
	}

	buf := make([]byte, a.bufSize)
	n, err := conn.Read(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fail(OutcomeError, ctxErr, errorText(t, ctxErr))
		}

		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fail(OutcomeTimeout, err, timeoutText(t))
		}
		return fail(OutcomeError, err, errorText(t, err))
	}

	res.Text = strings.TrimSpace(strings.TrimRight(string(buf[:n]), "\x00"))
	if report, err := ParseReport(res.Text); err == nil {
		res.Report = &report
	} else {
		a.log.Warn().Err(err).Str("peer", t.Region.Code).Msg("Peer reply is not a status report")
	}

	return res
}

func timeoutText(t Target) string {
	return fmt.Sprintf("%s: Request to server on port %s has timed out!", t.Region.Label, targetPort(t))
}

func errorText(t Target, err error) string {
	return fmt.Sprintf("%s: Request to server on port %s failed: %v", t.Region.Label, targetPort(t), err)
}

// targetPort is the port actually dialed, which may differ from the configured one.
func targetPort(t Target) string {
	if _, port, err := net.SplitHostPort(t.Addr); err == nil {
		return port
	}

	return strconv.Itoa(t.Region.Port)
}
