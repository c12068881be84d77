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

package handshake

import (
	"testing"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/stretchr/testify/assert"
)

const testTimeout = time.Millisecond * 50

func testOptions() Options {
	return Options{Timeout: testTimeout, Retries: 3}
}

func TestConnectAccept(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	acceptDone := make(chan error, 1)
	go func() {
		pending, err := hc.Accept(server, 15)
		assert.Nil(t, pending)
		acceptDone <- err
	}()

	window, err := hc.Connect(client, 5)
	assert.NoError(t, err)
	assert.Equal(t, uint16(5), window)
	assert.NoError(t, <-acceptDone)
}

func TestConnectClampsWindow(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	go func() {
		_, _ = hc.Accept(server, 2)
	}()

	window, err := hc.Connect(client, 10)
	assert.NoError(t, err)
	assert.Equal(t, uint16(2), window)
}

func TestConnectTimesOutWithoutPeer(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close() // nobody reads, SYNs pile up unanswered

	hc := NewController(testOptions())
	start := time.Now()
	_, err := hc.Connect(client, 3)
	assert.Error(t, err)
	var ctErr *ConnectionTimeoutError
	assert.ErrorAs(t, err, &ctErr)
	assert.Equal(t, PhaseEstablish, ctErr.Phase)
	assert.Equal(t, 3, ctErr.Attempts)
	assert.GreaterOrEqual(t, time.Since(start), 3*testTimeout)
}

func TestConnectRetriesAfterLostSyn(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	go func() {
		// swallow the first SYN, answer the second
		_, err := server.Recv(0)
		assert.NoError(t, err)
		_, _ = hc.Accept(server, 15)
	}()

	window, err := hc.Connect(client, 4)
	assert.NoError(t, err)
	assert.Equal(t, uint16(4), window)
}

func TestAcceptResendsSynAckOnDuplicateSyn(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	done := make(chan error, 1)
	go func() {
		_, err := hc.Accept(server, 15)
		done <- err
	}()

	syn := codec.Encode(codec.Segment{Seq: 1, Flags: codec.FlagSyn, Window: 3})
	assert.NoError(t, client.Send(syn))
	first, err := client.Recv(testTimeout)
	assert.NoError(t, err)
	// pretend the SYN-ACK never arrived and send the SYN again
	assert.NoError(t, client.Send(syn))
	second, err := client.Recv(testTimeout)
	assert.NoError(t, err)
	assert.Equal(t, first, second)

	ack := codec.Encode(codec.Segment{Seq: 2, Ack: 1, Flags: codec.FlagAck})
	assert.NoError(t, client.Send(ack))
	assert.NoError(t, <-done)
}

func TestAcceptReturnsEarlyDataSegment(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	type result struct {
		pending []byte
		err     error
	}
	done := make(chan result, 1)
	go func() {
		pending, err := hc.Accept(server, 15)
		done <- result{pending, err}
	}()

	syn := codec.Encode(codec.Segment{Seq: 1, Flags: codec.FlagSyn})
	assert.NoError(t, client.Send(syn))
	_, err := client.Recv(testTimeout)
	assert.NoError(t, err)
	// final ACK lost, first data segment arrives instead
	data := codec.Encode(codec.Segment{Seq: 1, Payload: []byte("first chunk")})
	assert.NoError(t, client.Send(data))

	res := <-done
	assert.NoError(t, res.err)
	assert.Equal(t, data, res.pending)
}

func TestAcceptReturnsDataAfterAckWaitExpires(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	type result struct {
		pending []byte
		err     error
	}
	done := make(chan result, 1)
	go func() {
		pending, err := hc.Accept(server, 15)
		done <- result{pending, err}
	}()

	// data before any SYN belongs to no connection and must be ignored
	stray := codec.Encode(codec.Segment{Seq: 9, Payload: []byte("stray")})
	assert.NoError(t, client.Send(stray))

	syn := codec.Encode(codec.Segment{Seq: 1, Flags: codec.FlagSyn})
	assert.NoError(t, client.Send(syn))
	_, err := client.Recv(testTimeout)
	assert.NoError(t, err)

	// the final ACK is lost and the client pauses long enough for the
	// ACK wait to give up before its first data segment goes out
	time.Sleep(testTimeout * 2)
	data := codec.Encode(codec.Segment{Seq: 1, Payload: []byte("first chunk")})
	assert.NoError(t, client.Send(data))

	select {
	case res := <-done:
		assert.NoError(t, res.err)
		assert.Equal(t, data, res.pending)
	case <-time.After(time.Second):
		assert.Fail(t, "accept never returned the late data segment")
	}
}

func TestTeardown(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	go func() {
		raw, err := server.Recv(0)
		assert.NoError(t, err)
		seg, err := codec.Decode(raw)
		assert.NoError(t, err)
		assert.True(t, seg.Flags.Has(codec.FlagFin))
		finAck := codec.Encode(codec.Segment{Flags: codec.FlagFin | codec.FlagAck})
		assert.NoError(t, server.Send(finAck))
	}()

	assert.NoError(t, hc.Teardown(client))
}

func TestTeardownTimesOut(t *testing.T) {
	client, server := transport.Pipe()
	defer client.Close()
	defer server.Close()

	hc := NewController(testOptions())
	err := hc.Teardown(client)
	var ctErr *ConnectionTimeoutError
	assert.ErrorAs(t, err, &ctErr)
	assert.Equal(t, PhaseTeardown, ctErr.Phase)
}
