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

// Package sender implements the Go-Back-N sliding window.
//
// One retransmission timer covers the whole window. A timeout retransmits
// every outstanding segment, not just the oldest one, and the data phase
// never gives up: loss is masked entirely by retransmission, only the
// surrounding handshake and teardown phases carry retry bounds.
package sender

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Stats
// counters accumulated over one push
type Stats struct {
	Segments    int   // distinct data segments sent
	Retransmits int   // segments sent again after an RTO
	Bytes       int64 // payload bytes, not counting retransmissions
}

// Sender public interface
type Sender interface {
	// Push transmits every payload as one data segment and blocks until
	// all of them are acknowledged or ctx is cancelled.
	Push(ctx context.Context, conn transport.Conn, payloads [][]byte) (Stats, error)
	// Outstanding returns the current window edges for status reporting
	Outstanding() (base uint32, nextSeq uint32)
}

// senderImpl an interface implementation
type senderImpl struct {
	windowSize uint16
	rto        time.Duration
	lock       sync.Mutex // guards base/nextSeq against status readers
	base       uint32
	nextSeq    uint32
}

// NewSender
// creates an interface instance. windowSize must be at least 1.
func NewSender(windowSize uint16, rto time.Duration) Sender {
	if windowSize < 1 {
		windowSize = 1
	}
	return &senderImpl{windowSize: windowSize, rto: rto}
}

// Chunk
// splits data into payload slices of at most max bytes, preserving order
func Chunk(data []byte, max int) [][]byte {
	if max <= 0 {
		max = codec.MaxPayloadSize
	}
	chunks := make([][]byte, 0, (len(data)+max-1)/max)
	for len(data) > 0 {
		n := max
		if n > len(data) {
			n = len(data)
		}
		chunks = append(chunks, data[:n])
		data = data[n:]
	}
	return chunks
}

// Push interface implementation
func (s *senderImpl) Push(ctx context.Context, conn transport.Conn, payloads [][]byte) (Stats, error) {
	stats := Stats{}
	lastSeq := uint32(len(payloads))
	if lastSeq == 0 {
		return stats, nil
	}
	// data segments are encoded once; a retransmission re-sends the
	// byte-identical copy
	encoded := make([][]byte, lastSeq)
	for i, payload := range payloads {
		encoded[i] = codec.Encode(codec.Segment{Seq: uint32(i) + 1, Payload: payload})
		stats.Bytes += int64(len(payload))
	}
	stats.Segments = int(lastSeq)

	s.setWindow(1, 1)
	// the single timer: restarted whenever base advances while segments
	// remain outstanding, and whenever the window is retransmitted
	deadline := time.Now().Add(s.rto)
	for {
		base, nextSeq := s.Outstanding()
		if base > lastSeq {
			break // everything acknowledged
		}
		select {
		case <-ctx.Done():
			return stats, ctx.Err()
		default:
		}
		// admit new segments up to the window capacity
		for nextSeq <= lastSeq && nextSeq < base+uint32(s.windowSize) {
			if err := conn.Send(encoded[nextSeq-1]); err != nil {
				return stats, errors.Wrapf(err, "unable to send segment %d", nextSeq)
			}
			nextSeq++
			s.setWindow(base, nextSeq)
			log.Debugf("segment seq=%d sent, window {%s}", nextSeq-1, windowContents(base, nextSeq))
		}
		var raw []byte
		var err error
		if remaining := time.Until(deadline); remaining > 0 {
			raw, err = conn.Recv(remaining)
		} else {
			// the deadline expired while a reply was being handled; a
			// non-positive timeout would block the receive forever
			err = transport.ErrTimeout
		}
		if err == transport.ErrTimeout {
			log.Debug("RTO occurred")
			stats.Retransmits += int(nextSeq - base)
			for seq := base; seq < nextSeq; seq++ {
				if err := conn.Send(encoded[seq-1]); err != nil {
					return stats, errors.Wrapf(err, "unable to retransmit segment %d", seq)
				}
				log.Debugf("retransmitting segment seq=%d", seq)
			}
			deadline = time.Now().Add(s.rto)
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			return stats, errors.Wrap(err, "receive failed during data transfer")
		}
		seg, decodeErr := codec.Decode(raw)
		if decodeErr != nil {
			continue // corrupt reply, same as lost
		}
		if seg.Flags != codec.FlagAck {
			// a late SYN-ACK or FIN-ACK carries acknowledgement numbers from
			// another phase, only a plain ACK moves the data window
			log.Debugf("non-data reply with flags %#x ignored", uint16(seg.Flags))
			continue
		}
		// cumulative ack: seg.Ack is the highest in-order sequence number
		// the receiver has accepted; anything below base is stale
		if seg.Ack >= base && seg.Ack < nextSeq {
			base = seg.Ack + 1
			s.setWindow(base, nextSeq)
			log.Debugf("ACK %d received, window {%s}", seg.Ack, windowContents(base, nextSeq))
			deadline = time.Now().Add(s.rto)
		} else {
			log.Debugf("stale ACK %d ignored", seg.Ack)
		}
	}
	log.Infof("data transfer finished, %d segment(s), %d retransmission(s)", stats.Segments, stats.Retransmits)
	return stats, nil
}

// Outstanding interface implementation
func (s *senderImpl) Outstanding() (uint32, uint32) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.base, s.nextSeq
}

// setWindow
// internal, locking window edge setter
func (s *senderImpl) setWindow(base, nextSeq uint32) {
	s.lock.Lock()
	s.base = base
	s.nextSeq = nextSeq
	s.lock.Unlock()
}

// windowContents
// formats the outstanding range for transfer logging
func windowContents(base, nextSeq uint32) string {
	if nextSeq <= base {
		return ""
	}
	parts := make([]string, 0, nextSeq-base)
	for seq := base; seq < nextSeq; seq++ {
		parts = append(parts, fmt.Sprintf("%d", seq))
	}
	return strings.Join(parts, ", ")
}
