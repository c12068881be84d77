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
	"bufio"
	"os"
	"sync"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	log "github.com/sirupsen/logrus"
)

// Recorder public interface
// writes every traced datagram into a pcap file
type Recorder interface {
	Record(raw []byte)
	Close() error
}

// recorderImpl an interface implementation
type recorderImpl struct {
	lock   sync.Mutex
	fh     *os.File
	buf    *bufio.Writer
	writer *pcapgo.Writer
	nPkt   int
}

// NewRecorder
// creates a trace file and writes the pcap header.
// Datagrams carry no link layer, so they are recorded as raw IP-less frames.
func NewRecorder(fileName string) (Recorder, error) {
	fh, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	buf := bufio.NewWriter(fh)
	writer := pcapgo.NewWriter(buf)
	if err := writer.WriteFileHeader(view.TraceSnapLen, layers.LinkTypeNull); err != nil {
		_ = fh.Close()
		return nil, err
	}
	log.Printf("tracing datagrams to the file '%s'", fileName)
	return &recorderImpl{fh: fh, buf: buf, writer: writer}, nil
}

// Record interface implementation
func (tr *recorderImpl) Record(raw []byte) {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tr.writer == nil {
		return // already closed
	}
	capLen := len(raw)
	if capLen > view.TraceSnapLen {
		capLen = view.TraceSnapLen
	}
	ci := gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: capLen,
		Length:        len(raw),
	}
	if err := tr.writer.WritePacket(ci, raw[:capLen]); err != nil {
		log.Errorf("unable to write datagram %d into trace. Error: '%v'", tr.nPkt, err)
		return
	}
	tr.nPkt++
}

// Close interface implementation
func (tr *recorderImpl) Close() error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tr.writer == nil {
		return nil
	}
	tr.writer = nil
	err := tr.buf.Flush()
	if closeErr := tr.fh.Close(); err == nil {
		err = closeErr
	}
	log.Printf("trace finished with %d datagram(s)", tr.nPkt)
	return err
}

// tracedConn
// transport decorator feeding each datagram to the recorder
type tracedConn struct {
	transport.Conn
	rec Recorder
}

// WrapConn
// returns a connection whose traffic is recorded. A nil recorder
// returns the connection unchanged.
func WrapConn(conn transport.Conn, rec Recorder) transport.Conn {
	if rec == nil {
		return conn
	}
	return &tracedConn{Conn: conn, rec: rec}
}

func (c *tracedConn) Send(raw []byte) error {
	err := c.Conn.Send(raw)
	if err == nil {
		c.rec.Record(raw)
	}
	return err
}

func (c *tracedConn) Recv(timeout time.Duration) ([]byte, error) {
	raw, err := c.Conn.Recv(timeout)
	if err == nil {
		c.rec.Record(raw)
	}
	return raw, err
}
