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

package transfer

import (
	"context"
	"os"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/Rabia4012/drtp-transfer-agent/services/handshake"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	"github.com/stretchr/testify/assert"
)

// testFileBytes
// deterministic content spanning the requested number of data segments
func testFileBytes(segments int) []byte {
	size := (segments-1)*codec.MaxPayloadSize + 100
	data := make([]byte, size)
	for i := range data {
		data[i] = byte('A' + (i/codec.MaxPayloadSize)%26)
	}
	return data
}

func writeTestFile(t *testing.T, dir string, content []byte) string {
	t.Helper()
	fileName := path.Join(dir, "payload.bin")
	assert.NoError(t, os.WriteFile(fileName, content, 0644))
	return fileName
}

func newTestService(t *testing.T, dir string, traceFile string) Transfer {
	t.Helper()
	svc, err := NewTransfer(entities.TransferServiceConfig{
		WorkDirectory: dir,
		TraceFile:     traceFile,
		InstanceId:    "test",
	}, nil, nil, nil)
	assert.NoError(t, err)
	return svc
}

func quickClientConfig(t *testing.T, dir string, fileName string, window int) entities.ClientConfig {
	t.Helper()
	cfg, err := entities.MakeClientConfig(entities.TransferServiceConfig{WorkDirectory: dir}, fileName, window)
	assert.NoError(t, err)
	cfg.RetransmitTimeout = time.Millisecond * 40
	cfg.HandshakeTimeout = time.Millisecond * 40
	return cfg
}

func TestRoundTripWithInjectedDrop(t *testing.T) {
	clientDir := t.TempDir()
	serverDir := t.TempDir()
	content := testFileBytes(5)
	fileName := writeTestFile(t, clientDir, content)

	clientSvc := newTestService(t, clientDir, "client.pcap")
	serverSvc := newTestService(t, serverDir, view.EmptyString)
	near, far := transport.Pipe()
	defer near.Close()
	defer far.Close()

	serverCfg := entities.MakeServerConfig(entities.TransferServiceConfig{WorkDirectory: serverDir}, "received.bin", 2)
	serverCfg.HandshakeTimeout = time.Millisecond * 40
	var serverRec entities.TransferRecord
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		serverRec, err = serverSvc.RunServer(context.Background(), far, serverCfg)
		assert.NoError(t, err)
	}()

	clientCfg := quickClientConfig(t, clientDir, fileName, 3)
	clientRec, err := clientSvc.RunClient(context.Background(), near, clientCfg)
	assert.NoError(t, err)
	wg.Wait()

	received, err := os.ReadFile(path.Join(serverDir, "received.bin"))
	assert.NoError(t, err)
	assert.Equal(t, content, received)

	assert.Equal(t, view.RequestStatusCompleted, clientRec.Status)
	assert.Equal(t, 5, clientRec.Segments)
	assert.Equal(t, int64(len(content)), clientRec.Bytes)
	// segment 2 was discarded once, the window had to be resent
	assert.Greater(t, clientRec.Retransmits, 0)
	assert.Equal(t, view.RequestStatusCompleted, serverRec.Status)
	assert.Equal(t, int64(len(content)), serverRec.Bytes)
	assert.Equal(t, 5, serverRec.Segments)

	assert.Equal(t, view.RequestStatusCompleted, clientSvc.GetStatus().Status)
	status := serverSvc.GetStatus()
	assert.Equal(t, int64(len(content)), status.Received)

	clientSvc.Close()
	traceInfo, err := os.Stat(path.Join(clientDir, "client.pcap"))
	assert.NoError(t, err)
	assert.Greater(t, traceInfo.Size(), int64(24)) // more than a bare pcap header
}

func TestClientLossFreeRun(t *testing.T) {
	clientDir := t.TempDir()
	serverDir := t.TempDir()
	content := testFileBytes(2)
	fileName := writeTestFile(t, clientDir, content)

	clientSvc := newTestService(t, clientDir, view.EmptyString)
	serverSvc := newTestService(t, serverDir, view.EmptyString)
	near, far := transport.Pipe()
	defer near.Close()
	defer far.Close()

	serverCfg := entities.MakeServerConfig(entities.TransferServiceConfig{WorkDirectory: serverDir}, view.EmptyString, 0)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		rec, err := serverSvc.RunServer(context.Background(), far, serverCfg)
		assert.NoError(t, err)
		assert.Equal(t, int64(len(content)), rec.Bytes)
		// generated name is used when no explicit output file is given
		assert.Contains(t, rec.FileName, "received_")
	}()

	clientCfg := quickClientConfig(t, clientDir, fileName, 3)
	rec, err := clientSvc.RunClient(context.Background(), near, clientCfg)
	assert.NoError(t, err)
	assert.Equal(t, 0, rec.Retransmits)
	wg.Wait()
}

func TestClientFailsWithoutServer(t *testing.T) {
	dir := t.TempDir()
	content := testFileBytes(1)
	fileName := writeTestFile(t, dir, content)
	svc := newTestService(t, dir, view.EmptyString)
	near, far := transport.Pipe()
	defer far.Close()
	defer near.Close()

	cfg := quickClientConfig(t, dir, fileName, 3)
	cfg.HandshakeRetries = 2
	rec, err := svc.RunClient(context.Background(), near, cfg)
	var hsErr *handshake.ConnectionTimeoutError
	assert.ErrorAs(t, err, &hsErr)
	assert.Equal(t, handshake.PhaseEstablish, hsErr.Phase)
	assert.Equal(t, view.RequestStatusFailed, rec.Status)
	// no data phase ever started
	assert.Equal(t, 0, rec.Segments)
	assert.Equal(t, view.RequestStatusFailed, svc.GetStatus().Status)
}

func TestClientFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	svc := newTestService(t, dir, view.EmptyString)
	near, far := transport.Pipe()
	defer far.Close()
	defer near.Close()

	cfg := quickClientConfig(t, dir, path.Join(dir, "no-such-file"), 3)
	_, err := svc.RunClient(context.Background(), near, cfg)
	assert.Error(t, err)
}

func TestNewTransferRejectsBadDirectory(t *testing.T) {
	_, err := NewTransfer(entities.TransferServiceConfig{WorkDirectory: view.EmptyString}, nil, nil, nil)
	assert.Error(t, err)
}
