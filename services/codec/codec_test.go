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

package codec

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := []byte("some file bytes")
	seg := Segment{Seq: 7, Ack: 3, Flags: FlagAck, Window: 15, Payload: payload}
	raw := Encode(seg)
	assert.Equal(t, HeaderSize+len(payload), len(raw))
	decoded, err := Decode(raw)
	assert.NoError(t, err)
	assert.Equal(t, seg.Seq, decoded.Seq)
	assert.Equal(t, seg.Ack, decoded.Ack)
	assert.Equal(t, seg.Flags, decoded.Flags)
	assert.Equal(t, seg.Window, decoded.Window)
	assert.Equal(t, payload, decoded.Payload)
}

func TestEncodeControlSegment(t *testing.T) {
	raw := Encode(Segment{Seq: 1, Flags: FlagSyn})
	assert.Equal(t, HeaderSize, len(raw))
	decoded, err := Decode(raw)
	assert.NoError(t, err)
	assert.True(t, decoded.Flags.Has(FlagSyn))
	assert.Nil(t, decoded.Payload)
}

func TestEncodeDeterministic(t *testing.T) {
	seg := Segment{Seq: 42, Flags: 0, Payload: bytes.Repeat([]byte{0xAB}, MaxPayloadSize)}
	assert.Equal(t, Encode(seg), Encode(seg))
}

func TestDecodeChecksumError(t *testing.T) {
	raw := Encode(Segment{Seq: 9, Payload: []byte{1, 2, 3, 4, 5}})
	// flip single payload bits at several positions
	for _, bit := range []uint{0, 3, 7} {
		for pos := HeaderSize; pos < len(raw); pos++ {
			corrupted := make([]byte, len(raw))
			copy(corrupted, raw)
			corrupted[pos] ^= 1 << bit
			_, err := Decode(corrupted)
			assert.Error(t, err)
			var csErr *ChecksumError
			assert.ErrorAs(t, err, &csErr)
		}
	}
}

func TestDecodeCorruptedHeader(t *testing.T) {
	raw := Encode(Segment{Seq: 9, Flags: FlagAck, Ack: 4})
	corrupted := make([]byte, len(raw))
	copy(corrupted, raw)
	corrupted[0] ^= 0x80 // damage the sequence number
	_, err := Decode(corrupted)
	var csErr *ChecksumError
	assert.ErrorAs(t, err, &csErr)
}

func TestDecodeMalformed(t *testing.T) {
	var mErr *MalformedError
	_, err := Decode([]byte{1, 2, 3})
	assert.ErrorAs(t, err, &mErr)
	_, err = Decode(nil)
	assert.ErrorAs(t, err, &mErr)
	// truncated payload disagrees with the length field
	raw := Encode(Segment{Seq: 1, Payload: []byte("abcdef")})
	_, err = Decode(raw[:len(raw)-2])
	assert.ErrorAs(t, err, &mErr)
}

func TestFlagCombinations(t *testing.T) {
	assert.True(t, (FlagSyn | FlagAck).Has(FlagSyn))
	assert.True(t, (FlagSyn | FlagAck).Has(FlagAck))
	assert.False(t, FlagSyn.Has(FlagAck))
	assert.Equal(t, "SYN-ACK", (FlagSyn | FlagAck).String())
	assert.Equal(t, "FIN-ACK", (FlagFin | FlagAck).String())
	assert.Equal(t, "DATA", Flags(0).String())
}
