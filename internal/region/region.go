// Package region describes the fixed set of regions a server knows about and
// the responder port each one listens on.
package region

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Identity binds a region code to its default account IP, responder port and label.
type Identity struct {
	Code      string
	Label     string
	DefaultIP string
	Port      int
}

// Defaults is the canonical three region table.
var Defaults = []string{
	"NA:6789:132.168.2.22",
	"EU:6790:93.168.2.22",
	"AS:6791:182.168.2.22",
}

// ErrUnknownRegion is returned when a region code is not part of the table.
var ErrUnknownRegion = errors.New("unknown server region")

// Table is an immutable, ordered set of regions with injective port assignment.
type Table struct {
	byCode  map[string]int
	regions []Identity
}

// ParseDefinition parses "CODE:PORT:IP[:LABEL]". The label defaults to the code.
func ParseDefinition(def string) (Identity, error) {
	parts := strings.SplitN(strings.TrimSpace(def), ":", 4)
	if len(parts) < 3 {
		return Identity{}, fmt.Errorf("region definition %q: expected CODE:PORT:IP[:LABEL]", def)
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return Identity{}, fmt.Errorf("region definition %q: invalid port: %w", def, err)
	}

	id := Identity{
		Code:      strings.ToUpper(parts[0]),
		Port:      port,
		DefaultIP: parts[2],
		Label:     strings.ToUpper(parts[0]),
	}
	if len(parts) == 4 && parts[3] != "" {
		id.Label = parts[3]
	}

	return id, nil
}

// NewTable validates regions and freezes them in the given (canonical) order.
func NewTable(regions []Identity) (*Table, error) {
	if len(regions) == 0 {
		return nil, errors.New("region table is empty")
	}

	t := &Table{
		byCode:  make(map[string]int, len(regions)),
		regions: make([]Identity, 0, len(regions)),
	}
	ports := make(map[int]string, len(regions))

	for _, r := range regions {
		if r.Code == "" {
			return nil, errors.New("region code must not be empty")
		}
		if r.Port <= 0 || r.Port > 65535 {
			return nil, fmt.Errorf("region %s: port %d out of range", r.Code, r.Port)
		}
		if net.ParseIP(r.DefaultIP) == nil {
			return nil, fmt.Errorf("region %s: invalid default IP %q", r.Code, r.DefaultIP)
		}
		if _, dup := t.byCode[r.Code]; dup {
			return nil, fmt.Errorf("region %s defined twice", r.Code)
		}
		if other, taken := ports[r.Port]; taken {
			return nil, fmt.Errorf("regions %s and %s share responder port %d", other, r.Code, r.Port)
		}
		if r.Label == "" {
			r.Label = r.Code
		}

		ports[r.Port] = r.Code
		t.byCode[r.Code] = len(t.regions)
		t.regions = append(t.regions, r)
	}

	return t, nil
}

// ParseTable parses and validates a list of region definitions.
func ParseTable(defs []string) (*Table, error) {
	regions := make([]Identity, 0, len(defs))
	for _, def := range defs {
		id, err := ParseDefinition(def)
		if err != nil {
			return nil, err
		}
		regions = append(regions, id)
	}

	return NewTable(regions)
}

// Lookup returns the region registered under code.
func (t *Table) Lookup(code string) (Identity, error) {
	i, ok := t.byCode[strings.ToUpper(code)]
	if !ok {
		return Identity{}, fmt.Errorf("%w: %q", ErrUnknownRegion, code)
	}

	return t.regions[i], nil
}

// All returns every region in canonical order.
func (t *Table) All() []Identity {
	out := make([]Identity, len(t.regions))
	copy(out, t.regions)
	return out
}

// Peers returns every region except code, in canonical order.
func (t *Table) Peers(code string) []Identity {
	code = strings.ToUpper(code)
	out := make([]Identity, 0, len(t.regions))
	for _, r := range t.regions {
		if r.Code != code {
			out = append(out, r)
		}
	}

	return out
}
