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

package transport

import (
	"sync"
	"time"
)

const pipeDepth = 256

// pipeConn
// in-memory Conn used by tests and local loopback runs. Datagram semantics
// are preserved: a full queue silently drops, like a congested link.
type pipeConn struct {
	in     chan []byte
	peer   *pipeConn
	closed chan struct{}
	once   sync.Once
}

// Pipe
// returns two connected in-memory datagram endpoints
func Pipe() (Conn, Conn) {
	a := &pipeConn{in: make(chan []byte, pipeDepth), closed: make(chan struct{})}
	b := &pipeConn{in: make(chan []byte, pipeDepth), closed: make(chan struct{})}
	a.peer = b
	b.peer = a
	return a, b
}

func (p *pipeConn) Send(raw []byte) error {
	out := make([]byte, len(raw))
	copy(out, raw)
	select {
	case <-p.closed:
		return ErrClosed
	case <-p.peer.closed:
		return ErrClosed
	case p.peer.in <- out:
		return nil
	default:
		return nil // queue full, datagram lost
	}
}

func (p *pipeConn) Recv(timeout time.Duration) ([]byte, error) {
	if timeout <= 0 {
		select {
		case raw := <-p.in:
			return raw, nil
		case <-p.closed:
			return nil, ErrClosed
		}
	}
	select {
	case raw := <-p.in:
		return raw, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-time.After(timeout):
		return nil, ErrTimeout
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
