package iknp

import "github.com/summitto/boolmpc/block"

// SenderRCOT adapts *Sender to the single-method Rcot(n) surface
// (bidirot.SenderRCOT, tuplegen.RCOTSource) that the rest of the engine
// depends on, so IKNP can stand in directly for Ferret wherever a caller
// doesn't need Ferret's sublinear communication: cmd/partyctl's demo
// driver, or a test fixture that would rather not pay Ferret's multi-hundred
// thousand base-COT setup cost.
type SenderRCOT struct{ *Sender }

// Rcot produces n random correlated OTs via one IKNP extension call.
func (s SenderRCOT) Rcot(n int) (block.Vector, error) {
	return s.Extend(n)
}

// ReceiverRCOT is SenderRCOT's peer-side adapter; it discards the choice
// string IKNP's Extend exposes, since the Rcot(n) surface has no use for it
// (callers that need the choice bits use *Receiver.Extend directly).
type ReceiverRCOT struct{ *Receiver }

// Rcot produces n random correlated OTs via one IKNP extension call.
func (r ReceiverRCOT) Rcot(n int) (block.Vector, error) {
	out, _, err := r.Extend(n)
	return out, err
}
