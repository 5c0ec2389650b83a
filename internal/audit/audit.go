// Package audit provides the append-only, best-effort audit trail of a region server.
// A failing sink never fails the operation that produced the record.
package audit

// Sink records an audit message attributed to a source (an IP address or an
// "Admin@REGION" style identifier).
type Sink interface {
	Record(message, source string)
}

// Nop discards every record.
type Nop struct{}

// Record implements Sink.
func (Nop) Record(string, string) {}

// Multi forwards each record to every sink in order.
type Multi []Sink

// Record implements Sink.
func (m Multi) Record(message, source string) {
	for _, s := range m {
		if s != nil {
			s.Record(message, source)
		}
	}
}

// Func adapts a function to Sink.
type Func func(message, source string)

// Record implements Sink.
func (f Func) Record(message, source string) {
	f(message, source)
}
