// Package status implements the inter-region status protocol: a responder that
// answers peer "getStatus" datagrams with the local tally, and an aggregator
// that fans a single round out to every peer and merges the replies.
package status

import (
	"errors"
	"fmt"
	"strings"

	"github.com/woozymasta/playerhub/internal/models"
)

// Request is the payload sent to peer responders. Responders do not parse it.
const Request = "getStatus"

// DefaultBufferSize is the datagram buffer used when none is configured.
const DefaultBufferSize = 1000

// Counter reports the online/offline tally of a region.
type Counter interface {
	CountByStatus() (online, offline int)
}

// ErrMalformedReport is returned by ParseReport for lines not in the wire format.
var ErrMalformedReport = errors.New("malformed status report")

const onlineMarker = ": Online: "

// ParseReport parses "<Label>: Online: <n> Offline: <m>".
func ParseReport(line string) (models.StatusReport, error) {
	line = strings.TrimSpace(strings.TrimRight(line, "\x00"))

	i := strings.LastIndex(line, onlineMarker)
	if i <= 0 {
		return models.StatusReport{}, fmt.Errorf("%w: %q", ErrMalformedReport, line)
	}

	report := models.StatusReport{Region: line[:i]}
	tail := line[i+len(onlineMarker):]
	if _, err := fmt.Sscanf(tail, "%d Offline: %d", &report.Online, &report.Offline); err != nil {
		return models.StatusReport{}, fmt.Errorf("%w: %q: %v", ErrMalformedReport, line, err)
	}
	if report.Online < 0 || report.Offline < 0 {
		return models.StatusReport{}, fmt.Errorf("%w: negative count in %q", ErrMalformedReport, line)
	}

	return report, nil
}

// localReport computes the report for label from counter.
func localReport(label string, counter Counter) models.StatusReport {
	online, offline := counter.CountByStatus()
	return models.StatusReport{Region: label, Online: online, Offline: offline}
}
