package network

import (
	"context"
	"errors"
	"net/netip"

	"go.uber.org/zap"

	"github.com/nspcc-dev/neond/pkg/wire"
)

// maxReadFailures is the cumulative per-peer read-failure threshold past
// which the reader synthesizes a disconnect.
const maxReadFailures = 10

// inboundMessage is one tuple handed from a per-peer reader to the
// central handler, paired with a one-shot acknowledgement channel: the
// handler signals back whether the peer should be dropped, giving the
// reader natural backpressure and preserving this peer's message order
// while still allowing the handler to interleave fairly across peers.
type inboundMessage struct {
	addr    netip.AddrPort
	name    wire.MessageName
	payload []byte
	ack     chan bool
}

// peerReader owns a Channel's read half for the lifetime of one
// connection.
type peerReader struct {
	addr         netip.AddrPort
	ch           *Channel
	out          chan<- *inboundMessage
	log          *zap.Logger
	failureCount int
	maxFailures  int
}

// threshold returns the configured failure cap, falling back to
// maxReadFailures if unset.
func (r *peerReader) threshold() int {
	if r.maxFailures > 0 {
		return r.maxFailures
	}
	return maxReadFailures
}

// run drains ch until a disconnect is warranted, either because the
// stream errored past the failure threshold or the handler instructed a
// disconnect. Unless ctx is canceled first, it forwards a synthetic
// disconnect message before returning, so the handler can clean up connection-table/peer-book
// state exactly once.
func (r *peerReader) run(ctx context.Context) {
	defer r.forwardDisconnect(ctx)

	for {
		failed := false
		name, payload, err := r.ch.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.handleFailure(&failed, err)
			if r.failureCount >= r.threshold() {
				return
			}
			continue
		}

		if !wire.IsKnown(name) {
			r.log.Debug("dropping unknown message name", zap.Stringer("addr", r.addr), zap.String("name", name.String()))
			continue
		}

		ack := make(chan bool, 1)
		select {
		case r.out <- &inboundMessage{addr: r.addr, name: name, payload: payload, ack: ack}:
		case <-ctx.Done():
			return
		}

		select {
		case disconnect := <-ack:
			if disconnect {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// handleFailure increments failureCount only on the first failure
// observed within the current loop iteration; a second failure in the
// same iteration (there is none in this linear loop body, but the guard
// mirrors the original contract) is logged without double-counting.
func (r *peerReader) handleFailure(failed *bool, err error) {
	if *failed {
		r.log.Debug("repeated failure in same iteration, not recounted", zap.Error(err))
		return
	}
	*failed = true
	r.failureCount++
	if errors.Is(err, ErrPeerDisconnected) {
		r.log.Debug("peer disconnected", zap.Stringer("addr", r.addr), zap.Error(err))
	} else {
		r.log.Debug("read failure", zap.Stringer("addr", r.addr), zap.Int("failure_count", r.failureCount), zap.Error(err))
	}
}

func (r *peerReader) forwardDisconnect(ctx context.Context) {
	ack := make(chan bool, 1)
	select {
	case r.out <- &inboundMessage{addr: r.addr, name: wire.NameDisconnect, ack: ack}:
		<-ack
	case <-ctx.Done():
	}
}
