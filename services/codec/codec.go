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

// Package codec implements the fixed wire format of the transfer protocol.
//
// Every datagram carries exactly one segment: a 16-byte big-endian header
// followed by up to MaxPayloadSize bytes of data. The checksum field holds
// the Internet checksum computed over the whole segment with the checksum
// field zeroed.
package codec

import (
	"encoding/binary"
	"fmt"

	"github.com/google/netstack/tcpip/header"
)

const (
	// HeaderSize fixed header length in bytes
	HeaderSize = 16
	// MaxPayloadSize the biggest data chunk carried by a single segment
	MaxPayloadSize = 992
	// MaxSegmentSize a receive buffer big enough for any valid segment
	MaxSegmentSize = HeaderSize + MaxPayloadSize
)

// Flags segment control bits, combinable
type Flags uint16

const (
	FlagAck Flags = 0x2
	FlagSyn Flags = 0x4
	FlagFin Flags = 0x8
)

// Has
// reports whether every bit of mask is set
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

func (f Flags) String() string {
	switch {
	case f.Has(FlagSyn | FlagAck):
		return "SYN-ACK"
	case f.Has(FlagFin | FlagAck):
		return "FIN-ACK"
	case f.Has(FlagSyn):
		return "SYN"
	case f.Has(FlagFin):
		return "FIN"
	case f.Has(FlagAck):
		return "ACK"
	}
	return "DATA"
}

// header field offsets
const (
	offsetSeq      = 0
	offsetAck      = 4
	offsetFlags    = 8
	offsetWindow   = 10
	offsetLength   = 12
	offsetChecksum = 14
)

// Segment
// one decoded protocol unit
type Segment struct {
	Seq     uint32
	Ack     uint32
	Flags   Flags
	Window  uint16
	Payload []byte
}

// ChecksumError
// the recomputed checksum does not match the transmitted one. The segment
// must be treated exactly as if it never arrived.
type ChecksumError struct {
	Computed uint16
	Received uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("segment checksum mismatch: computed %#04x, received %#04x", e.Computed, e.Received)
}

// MalformedError
// the datagram is too short or its length field disagrees with its size
type MalformedError struct {
	Size int
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed segment of %d byte(s)", e.Size)
}

// Encode
// produces the wire bytes for a segment. The result is deterministic, a
// retransmission of the same segment is byte-identical.
func Encode(seg Segment) []byte {
	buf := make([]byte, HeaderSize+len(seg.Payload))
	binary.BigEndian.PutUint32(buf[offsetSeq:], seg.Seq)
	binary.BigEndian.PutUint32(buf[offsetAck:], seg.Ack)
	binary.BigEndian.PutUint16(buf[offsetFlags:], uint16(seg.Flags))
	binary.BigEndian.PutUint16(buf[offsetWindow:], seg.Window)
	binary.BigEndian.PutUint16(buf[offsetLength:], uint16(len(seg.Payload)))
	copy(buf[HeaderSize:], seg.Payload)
	// checksum goes last, over the segment with the checksum field zeroed
	binary.BigEndian.PutUint16(buf[offsetChecksum:], ^header.Checksum(buf, 0))
	return buf
}

// Decode
// parses wire bytes back into a Segment. Returns MalformedError for
// undersized or inconsistent datagrams and ChecksumError when the integrity
// check fails.
func Decode(raw []byte) (Segment, error) {
	if len(raw) < HeaderSize {
		return Segment{}, &MalformedError{Size: len(raw)}
	}
	length := binary.BigEndian.Uint16(raw[offsetLength:])
	if int(length) != len(raw)-HeaderSize || length > MaxPayloadSize {
		return Segment{}, &MalformedError{Size: len(raw)}
	}
	received := binary.BigEndian.Uint16(raw[offsetChecksum:])
	scratch := make([]byte, len(raw))
	copy(scratch, raw)
	binary.BigEndian.PutUint16(scratch[offsetChecksum:], 0)
	computed := ^header.Checksum(scratch, 0)
	if computed != received {
		return Segment{}, &ChecksumError{Computed: computed, Received: received}
	}
	seg := Segment{
		Seq:    binary.BigEndian.Uint32(raw[offsetSeq:]),
		Ack:    binary.BigEndian.Uint32(raw[offsetAck:]),
		Flags:  Flags(binary.BigEndian.Uint16(raw[offsetFlags:])),
		Window: binary.BigEndian.Uint16(raw[offsetWindow:]),
	}
	if length > 0 {
		seg.Payload = make([]byte, length)
		copy(seg.Payload, raw[HeaderSize:])
	}
	return seg, nil
}
