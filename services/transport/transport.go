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

// Package transport provides the unreliable datagram primitive the protocol
// engine runs on. Every Send is at most one datagram, nothing is guaranteed
// about delivery or order.
package transport

import (
	"net"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ErrTimeout returned by Recv when nothing arrived within the given time
var ErrTimeout = errors.New("receive timed out")

// ErrClosed returned once the connection has been shut down
var ErrClosed = errors.New("transport closed")

// Conn
// a datagram connection bound to a single remote peer
type Conn interface {
	// Send transmits raw as one datagram, best effort
	Send(raw []byte) error
	// Recv blocks until a datagram arrives or timeout passes.
	// A non-positive timeout blocks indefinitely.
	Recv(timeout time.Duration) ([]byte, error)
	Close() error
}

// udpConn
// Conn implementation over a UDP socket. On the server side the peer address
// is learned from the first datagram and everything else is discarded.
type udpConn struct {
	sock   *net.UDPConn
	peer   *net.UDPAddr // nil until the first datagram on the passive side
	dialed bool
}

// Dial
// opens the active (client) side towards addr ("host:port")
func Dial(addr string) (Conn, error) {
	remote, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve '%s'", addr)
	}
	sock, err := net.DialUDP("udp4", nil, remote)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to dial '%s'", addr)
	}
	return &udpConn{sock: sock, peer: remote, dialed: true}, nil
}

// Listen
// binds the passive (server) side on addr ("host:port")
func Listen(addr string) (Conn, error) {
	local, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve '%s'", addr)
	}
	sock, err := net.ListenUDP("udp4", local)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to bind '%s'", addr)
	}
	return &udpConn{sock: sock}, nil
}

func (c *udpConn) Send(raw []byte) error {
	var err error
	if c.dialed {
		_, err = c.sock.Write(raw)
	} else {
		if c.peer == nil {
			return errors.New("no peer known yet")
		}
		_, err = c.sock.WriteToUDP(raw, c.peer)
	}
	return err
}

func (c *udpConn) Recv(timeout time.Duration) ([]byte, error) {
	if timeout > 0 {
		if err := c.sock.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return nil, err
		}
	} else {
		if err := c.sock.SetReadDeadline(time.Time{}); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, codec.MaxSegmentSize+1)
	for {
		n, from, err := c.sock.ReadFromUDP(buf)
		if err != nil {
			if nErr, ok := err.(net.Error); ok && nErr.Timeout() {
				return nil, ErrTimeout
			}
			return nil, errors.Wrap(err, "datagram receive failed")
		}
		if c.peer == nil {
			c.peer = from // lock onto the first sender
		} else if !c.dialed && (from.Port != c.peer.Port || !from.IP.Equal(c.peer.IP)) {
			log.Debugf("discarding datagram from unexpected peer %s", from.String())
			continue
		}
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}

func (c *udpConn) Close() error {
	return c.sock.Close()
}
