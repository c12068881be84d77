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

// Package handshake drives connection establishment and teardown.
//
// Establishment is the classic three-step exchange: SYN, SYN-ACK carrying
// the receiver window advertisement, final ACK. Teardown is FIN answered by
// FIN-ACK. Both phases retry on a timeout up to a bounded attempt count;
// everything in between (the data phase) retries forever and lives in the
// sender package.
package handshake

import (
	"fmt"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

type Phase string

const (
	PhaseEstablish Phase = "establishment"
	PhaseTeardown  Phase = "teardown"
)

// control segment sequence values, fixed by the wire protocol
const (
	synSeq = 1
	ackSeq = 2
)

// ConnectionTimeoutError
// a handshake or teardown phase exhausted its retry bound. Terminal: the
// run aborts, nothing above retries it again.
type ConnectionTimeoutError struct {
	Phase    Phase
	Attempts int
}

func (e *ConnectionTimeoutError) Error() string {
	return fmt.Sprintf("connection %s timed out after %d attempt(s)", e.Phase, e.Attempts)
}

// Options
// shared timing knobs for both phases
type Options struct {
	Timeout time.Duration // reply wait per attempt
	Retries int           // attempt bound
}

// Controller public interface
type Controller interface {
	// Connect runs the active side of establishment and returns the
	// negotiated window size (the configured one clamped by the peer's
	// advertisement).
	Connect(conn transport.Conn, windowSize uint16) (uint16, error)
	// Accept runs the passive side. It blocks until a client arrives and
	// the exchange completes. When the final ACK was lost but a data
	// segment already arrived, that segment is returned raw so the caller
	// can process it instead of losing it.
	Accept(conn transport.Conn, advertised uint16) ([]byte, error)
	// Teardown runs the active FIN exchange. Exhausted retries close the
	// connection anyway, best effort, and still report the timeout.
	Teardown(conn transport.Conn) error
}

// controllerImpl an interface implementation
type controllerImpl struct {
	opts Options
}

// NewController
// creates an interface instance
func NewController(opts Options) Controller {
	return &controllerImpl{opts: opts}
}

// Connect interface implementation
func (hc *controllerImpl) Connect(conn transport.Conn, windowSize uint16) (uint16, error) {
	syn := codec.Encode(codec.Segment{Seq: synSeq, Flags: codec.FlagSyn, Window: windowSize})
	for attempt := 1; attempt <= hc.opts.Retries; attempt++ {
		if err := conn.Send(syn); err != nil {
			return 0, errors.Wrap(err, "unable to send SYN")
		}
		log.Debugf("SYN sent (attempt %d)", attempt)
		seg, ok := hc.awaitReply(conn, codec.FlagSyn|codec.FlagAck)
		if !ok {
			log.Debugf("no SYN-ACK within %s", hc.opts.Timeout.String())
			continue
		}
		log.Debug("SYN-ACK received")
		ack := codec.Encode(codec.Segment{Seq: ackSeq, Ack: seg.Seq + 1, Flags: codec.FlagAck})
		if err := conn.Send(ack); err != nil {
			return 0, errors.Wrap(err, "unable to send final ACK")
		}
		// established once our ACK is on the wire, no further confirmation
		negotiated := windowSize
		if seg.Window > 0 && seg.Window < negotiated {
			negotiated = seg.Window
		}
		log.Infof("connection established, window %d", negotiated)
		return negotiated, nil
	}
	return 0, &ConnectionTimeoutError{Phase: PhaseEstablish, Attempts: hc.opts.Retries}
}

// Accept interface implementation
func (hc *controllerImpl) Accept(conn transport.Conn, advertised uint16) ([]byte, error) {
	// wait for the first SYN for as long as it takes
	synAckSent := false
	for {
		raw, err := conn.Recv(0)
		if err != nil {
			return nil, errors.Wrap(err, "receive failed while waiting for SYN")
		}
		seg, err := codec.Decode(raw)
		if err != nil {
			continue // corrupt datagram, as if it never arrived
		}
		if !seg.Flags.Has(codec.FlagSyn) {
			if synAckSent && seg.Flags == 0 {
				// the final ACK never arrived and the client has moved on
				// to sending data, so the exchange did complete on its side
				log.Debug("data after unanswered SYN-ACK, treating connection as established")
				return raw, nil
			}
			continue
		}
		log.Debug("SYN received")
		synAck := codec.Encode(codec.Segment{Ack: seg.Seq + 1, Flags: codec.FlagSyn | codec.FlagAck, Window: advertised})
		if err := conn.Send(synAck); err != nil {
			return nil, errors.Wrap(err, "unable to send SYN-ACK")
		}
		log.Debug("SYN-ACK sent")
		synAckSent = true
		// wait for the final ACK, tolerating duplicate SYNs as retries
		for {
			raw, err := conn.Recv(hc.opts.Timeout)
			if err == transport.ErrTimeout {
				// stay in SYN_RCVD, the client will resend its SYN
				break
			}
			if err != nil {
				return nil, errors.Wrap(err, "receive failed while waiting for ACK")
			}
			seg, err := codec.Decode(raw)
			if err != nil {
				continue
			}
			if seg.Flags.Has(codec.FlagSyn) {
				if err := conn.Send(synAck); err != nil {
					return nil, errors.Wrap(err, "unable to resend SYN-ACK")
				}
				log.Debug("duplicate SYN, SYN-ACK resent")
				continue
			}
			if seg.Flags.Has(codec.FlagAck) {
				log.Info("connection established")
				return nil, nil
			}
			// a data segment means the final ACK was lost in transit but
			// the client considers the connection open; hand it upward
			log.Debug("data before final ACK, treating connection as established")
			return raw, nil
		}
	}
}

// Teardown interface implementation
func (hc *controllerImpl) Teardown(conn transport.Conn) error {
	fin := codec.Encode(codec.Segment{Flags: codec.FlagFin})
	for attempt := 1; attempt <= hc.opts.Retries; attempt++ {
		if err := conn.Send(fin); err != nil {
			return errors.Wrap(err, "unable to send FIN")
		}
		log.Debugf("FIN sent (attempt %d)", attempt)
		if _, ok := hc.awaitReply(conn, codec.FlagFin|codec.FlagAck); ok {
			log.Info("FIN-ACK received, connection closed")
			return nil
		}
		log.Debugf("no FIN-ACK within %s", hc.opts.Timeout.String())
	}
	// close anyway, the receiver exits on its own idle timeout
	return &ConnectionTimeoutError{Phase: PhaseTeardown, Attempts: hc.opts.Retries}
}

// awaitReply
// drains the connection until a segment with the wanted flags arrives or
// the per-attempt timeout passes. Corrupt and unrelated segments are
// treated as if they never arrived.
func (hc *controllerImpl) awaitReply(conn transport.Conn, wanted codec.Flags) (codec.Segment, bool) {
	deadline := time.Now().Add(hc.opts.Timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return codec.Segment{}, false
		}
		raw, err := conn.Recv(remaining)
		if err != nil {
			return codec.Segment{}, false
		}
		seg, err := codec.Decode(raw)
		if err != nil {
			continue
		}
		if seg.Flags.Has(wanted) {
			return seg, true
		}
	}
}
