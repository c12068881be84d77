// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package receiver accepts data segments and reassembles the byte stream.
//
// Delivery is strictly in order. A segment that is not the next expected
// one is never buffered: its payload is discarded and the last in-order
// acknowledgment is repeated, so the sender's full-window retransmission is
// reinforced without waiting for its timer. Corrupt datagrams are treated
// exactly as if they never arrived.
package receiver

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// DropGate
// test-harness hook: silently discards exactly one segment with the
// configured sequence number, the first time it is observed
type DropGate struct {
	lock   sync.Mutex
	target uint32
	armed  bool
}

// NewDropGate
// creates a gate for the given sequence number, 0 leaves the gate disabled
func NewDropGate(seq uint32) *DropGate {
	return &DropGate{target: seq, armed: seq != 0}
}

// ShouldDrop
// true exactly once for the configured sequence number
func (g *DropGate) ShouldDrop(seq uint32) bool {
	if g == nil {
		return false
	}
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.armed && seq == g.target {
		g.armed = false
		return true
	}
	return false
}

// Result
// counters accumulated over one receive run
type Result struct {
	Bytes         int64 // payload bytes written to the sink
	Segments      int   // distinct in-order segments delivered
	DroppedBadSum int   // datagrams discarded for a failed checksum
}

// Assembler public interface
type Assembler interface {
	// Run processes segments until the sender's FIN arrives, writing
	// payloads to sink strictly in sequence order. pending may carry one
	// raw datagram handed over by the handshake.
	Run(ctx context.Context, conn transport.Conn, sink io.Writer, pending []byte) (Result, error)
}

// assemblerImpl an interface implementation
type assemblerImpl struct {
	gate        *DropGate
	idleTimeout time.Duration
	lock        sync.Mutex // guards expectedSeq/received for status readers
	expectedSeq uint32
	received    int64
}

// NewAssembler
// creates an interface instance. idleTimeout bounds how long the run waits
// for the next segment before declaring the sender gone.
func NewAssembler(gate *DropGate, idleTimeout time.Duration) Assembler {
	return &assemblerImpl{gate: gate, idleTimeout: idleTimeout}
}

// Run interface implementation
func (ra *assemblerImpl) Run(ctx context.Context, conn transport.Conn, sink io.Writer, pending []byte) (Result, error) {
	result := Result{}
	ra.setProgress(1, 0)
	if pending != nil {
		done, err := ra.processDatagram(conn, sink, pending, &result)
		if err != nil || done {
			return result, err
		}
	}
	for {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}
		raw, err := conn.Recv(ra.idleTimeout)
		if err == transport.ErrTimeout {
			return result, errors.Errorf("no segment within %s, sender presumed gone", ra.idleTimeout.String())
		}
		if err != nil {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			return result, errors.Wrap(err, "receive failed during data transfer")
		}
		done, err := ra.processDatagram(conn, sink, raw, &result)
		if err != nil {
			return result, err
		}
		if done {
			return result, nil
		}
	}
}

// processDatagram
// handles one raw datagram; done is true once the FIN exchange completed
func (ra *assemblerImpl) processDatagram(conn transport.Conn, sink io.Writer, raw []byte, result *Result) (bool, error) {
	seg, err := codec.Decode(raw)
	if err != nil {
		// checksum or framing failure: drop silently, no acknowledgment,
		// the segment effectively never arrived
		if _, ok := err.(*codec.ChecksumError); ok {
			result.DroppedBadSum++
		}
		log.Debugf("discarding datagram: %v", err)
		return false, nil
	}
	if seg.Flags.Has(codec.FlagFin) {
		log.Debug("FIN received")
		finAck := codec.Encode(codec.Segment{Flags: codec.FlagFin | codec.FlagAck})
		if err := conn.Send(finAck); err != nil {
			return true, errors.Wrap(err, "unable to send FIN-ACK")
		}
		log.Info("FIN-ACK sent, connection closed")
		return true, nil
	}
	if seg.Flags != 0 {
		return false, nil // stray control segment, none of ours
	}
	if ra.gate.ShouldDrop(seg.Seq) {
		log.Infof("segment seq=%d discarded by operator request", seg.Seq)
		return false, nil
	}
	expected, received := ra.progress()
	if seg.Seq != expected {
		// out of order or duplicate: nothing is buffered, repeat the last
		// in-order acknowledgment to reinforce the retransmission
		log.Debugf("out-of-order segment seq=%d received, expecting %d", seg.Seq, expected)
		reAck := codec.Encode(codec.Segment{Ack: expected - 1, Flags: codec.FlagAck})
		if err := conn.Send(reAck); err != nil {
			return false, errors.Wrap(err, "unable to resend acknowledgment")
		}
		return false, nil
	}
	if _, err := sink.Write(seg.Payload); err != nil {
		return false, errors.Wrapf(err, "unable to write segment %d to the output", seg.Seq)
	}
	result.Segments++
	result.Bytes += int64(len(seg.Payload))
	ra.setProgress(expected+1, received+int64(len(seg.Payload)))
	ack := codec.Encode(codec.Segment{Ack: seg.Seq, Flags: codec.FlagAck})
	if err := conn.Send(ack); err != nil {
		return false, errors.Wrapf(err, "unable to acknowledge segment %d", seg.Seq)
	}
	log.Debugf("segment seq=%d delivered, ACK sent", seg.Seq)
	return false, nil
}

// progress
// internal, locking getters for the receive state
func (ra *assemblerImpl) progress() (uint32, int64) {
	ra.lock.Lock()
	defer ra.lock.Unlock()
	return ra.expectedSeq, ra.received
}

// setProgress
// internal, locking state setter
func (ra *assemblerImpl) setProgress(expectedSeq uint32, received int64) {
	ra.lock.Lock()
	ra.expectedSeq = expectedSeq
	ra.received = received
	ra.lock.Unlock()
}
