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

package trace

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
)

func readTraceBack(t *testing.T, fileName string) [][]byte {
	t.Helper()
	fh, err := os.Open(fileName)
	assert.NoError(t, err)
	defer func() {
		assert.NoError(t, fh.Close())
	}()
	reader, err := pcapgo.NewReader(fh)
	assert.NoError(t, err)
	assert.Equal(t, layers.LinkTypeNull, reader.LinkType())
	var packets [][]byte
	for {
		data, _, err := reader.ReadPacketData()
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		packets = append(packets, data)
	}
	return packets
}

func TestRecorderRoundTrip(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "transfer.pcap")
	rec, err := NewRecorder(fileName)
	assert.NoError(t, err)
	first := codec.Encode(codec.Segment{Seq: 1, Payload: []byte("hello")})
	second := codec.Encode(codec.Segment{Ack: 1, Flags: codec.FlagAck})
	rec.Record(first)
	rec.Record(second)
	assert.NoError(t, rec.Close())
	assert.NoError(t, rec.Close()) // second close is a no-op

	packets := readTraceBack(t, fileName)
	assert.Equal(t, 2, len(packets))
	assert.Equal(t, first, packets[0])
	assert.Equal(t, second, packets[1])
}

func TestWrapConnRecordsBothDirections(t *testing.T) {
	fileName := filepath.Join(t.TempDir(), "wrapped.pcap")
	rec, err := NewRecorder(fileName)
	assert.NoError(t, err)

	near, far := transport.Pipe()
	defer far.Close()
	traced := WrapConn(near, rec)
	defer traced.Close()

	outbound := codec.Encode(codec.Segment{Seq: 1, Payload: []byte("out")})
	assert.NoError(t, traced.Send(outbound))
	got, err := far.Recv(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, outbound, got)

	inbound := codec.Encode(codec.Segment{Ack: 1, Flags: codec.FlagAck})
	assert.NoError(t, far.Send(inbound))
	got, err = traced.Recv(time.Second)
	assert.NoError(t, err)
	assert.Equal(t, inbound, got)

	assert.NoError(t, rec.Close())
	packets := readTraceBack(t, fileName)
	assert.Equal(t, 2, len(packets))
	assert.Equal(t, outbound, packets[0])
	assert.Equal(t, inbound, packets[1])
}

func TestWrapConnNilRecorder(t *testing.T) {
	near, far := transport.Pipe()
	defer near.Close()
	defer far.Close()
	assert.Equal(t, near, WrapConn(near, nil))
}
