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

// Package transfer
package transfer

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path"
	"sync"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/Rabia4012/drtp-transfer-agent/services/cloud_storage"
	"github.com/Rabia4012/drtp-transfer-agent/services/codec"
	"github.com/Rabia4012/drtp-transfer-agent/services/handshake"
	"github.com/Rabia4012/drtp-transfer-agent/services/journal"
	"github.com/Rabia4012/drtp-transfer-agent/services/notify"
	"github.com/Rabia4012/drtp-transfer-agent/services/receiver"
	"github.com/Rabia4012/drtp-transfer-agent/services/sender"
	"github.com/Rabia4012/drtp-transfer-agent/services/trace"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/Rabia4012/drtp-transfer-agent/utils"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	log "github.com/sirupsen/logrus"
)

const (
	roleClient = "client"
	roleServer = "server"
)

// Transfer public interface
type Transfer interface {
	// RunClient sends the configured file over conn and blocks until the
	// transfer completes or fails.
	RunClient(ctx context.Context, conn transport.Conn, cfg entities.ClientConfig) (entities.TransferRecord, error)
	// RunServer receives one file over conn and blocks until the sender
	// tears the connection down or goes silent.
	RunServer(ctx context.Context, conn transport.Conn, cfg entities.ServerConfig) (entities.TransferRecord, error)
	GetStatus() view.CallResult
	Close()
}

// active transfer
type activeTransfer struct {
	id       string
	role     string
	state    view.TransferState
	received int64
	lock     sync.Mutex
}

// underlying type for public interface
type transferInternal struct {
	serviceConfig entities.TransferServiceConfig // static part of the configuration
	storage       cloud_storage.CloudStorage     // S3 bucket to keep received files
	journal       journal.Journal                // durable outcome store
	notifier      notify.Notifier                // webhook to report outcomes
	recorder      trace.Recorder                 // optional datagram trace
	active        *activeTransfer                // the transfer in progress, kept after completion
	lock          sync.Mutex
}

// Common functions

// NewTransfer
// creates a new transfer service instance
// always returns a new instance with an optional error indicator
func NewTransfer(staticConfig entities.TransferServiceConfig, s3 cloud_storage.CloudStorage,
	jr journal.Journal, notifier notify.Notifier) (Transfer, error) {
	var returnedError error = nil
	if len(staticConfig.WorkDirectory) > 1 {
		fileName := path.Join(staticConfig.WorkDirectory, "test.tst")
		fh, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY, 0644)
		defer func(fh *os.File) {
			_ = fh.Close()
		}(fh)
		_ = os.Remove(fileName)
		if err != nil {
			returnedError = fmt.Errorf("directory '%s' is not writable, error: %v",
				staticConfig.WorkDirectory, err)
		}
	} else {
		returnedError = fmt.Errorf("empty directory is not allowed")
	}
	var recorder trace.Recorder = nil
	if returnedError == nil && staticConfig.TraceFile != view.EmptyString {
		traceName := path.Join(staticConfig.WorkDirectory, staticConfig.TraceFile)
		recorder, returnedError = trace.NewRecorder(traceName)
	}
	return &transferInternal{
		serviceConfig: staticConfig,
		storage:       s3,
		journal:       jr,
		notifier:      notifier,
		recorder:      recorder,
		active:        nil,
	}, returnedError
}

// countingWriter
// sink decorator exposing delivery progress to status readers
type countingWriter struct {
	inner    *bufio.Writer
	instance *activeTransfer
}

func (w *countingWriter) Write(p []byte) (int, error) {
	n, err := w.inner.Write(p)
	if n > 0 {
		w.instance.addReceived(int64(n))
	}
	return n, err
}

// Transfer interface implementation

// RunClient
// establishes the connection, pushes the whole file through the sliding
// window and tears the connection down
func (tr *transferInternal) RunClient(ctx context.Context, conn transport.Conn, cfg entities.ClientConfig) (entities.TransferRecord, error) {
	instance, err := tr.admit(cfg.Id, roleClient)
	if err != nil {
		return entities.TransferRecord{}, err
	}
	record := entities.TransferRecord{
		Id:        instance.id,
		Role:      roleClient,
		FileName:  path.Base(cfg.FilePath),
		StartedAt: time.Now(),
	}
	fileBytes, err := os.ReadFile(cfg.FilePath)
	if err != nil {
		return tr.finish(instance, record, fmt.Errorf("unable to read file '%s'. Error: %v", cfg.FilePath, err))
	}
	conn = trace.WrapConn(conn, tr.recorder)
	hc := handshake.NewController(handshake.Options{
		Timeout: cfg.HandshakeTimeout,
		Retries: cfg.HandshakeRetries,
	})
	instance.setState(view.TransStateSynSent)
	negotiated, err := hc.Connect(conn, cfg.WindowSize)
	if err != nil {
		return tr.finish(instance, record, err)
	}
	instance.setState(view.TransStateEstablished)
	if negotiated != cfg.WindowSize {
		log.Printf("window clamped from %d to %d by the server", cfg.WindowSize, negotiated)
	}
	snd := sender.NewSender(negotiated, cfg.RetransmitTimeout)
	stats, err := snd.Push(ctx, conn, sender.Chunk(fileBytes, codec.MaxPayloadSize))
	record.Bytes = stats.Bytes
	record.Segments = stats.Segments
	record.Retransmits = stats.Retransmits
	if err != nil {
		return tr.finish(instance, record, err)
	}
	instance.setState(view.TransStateFinSent)
	if err := hc.Teardown(conn); err != nil {
		// the data is already acknowledged, a lost FIN-ACK does not fail the run
		log.Warnf("teardown not confirmed for transfer %s: %v", instance.id, err)
	}
	return tr.finish(instance, record, nil)
}

// RunServer
// accepts one connection, reassembles the file in order and stores it
func (tr *transferInternal) RunServer(ctx context.Context, conn transport.Conn, cfg entities.ServerConfig) (entities.TransferRecord, error) {
	instance, err := tr.admit(cfg.Id, roleServer)
	if err != nil {
		return entities.TransferRecord{}, err
	}
	outputName := tr.outputFileName(cfg, instance.id)
	record := entities.TransferRecord{
		Id:        instance.id,
		Role:      roleServer,
		FileName:  path.Base(outputName),
		StartedAt: time.Now(),
	}
	conn = trace.WrapConn(conn, tr.recorder)
	hc := handshake.NewController(handshake.Options{Timeout: cfg.HandshakeTimeout})
	instance.setState(view.TransStateSynReceived)
	pending, err := hc.Accept(conn, cfg.AdvertisedWindow)
	if err != nil {
		return tr.finish(instance, record, err)
	}
	instance.setState(view.TransStateEstablished)
	fh, err := os.OpenFile(outputName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return tr.finish(instance, record, fmt.Errorf("unable to open '%s'. Error: %v", outputName, err))
	}
	sink := &countingWriter{inner: bufio.NewWriter(fh), instance: instance}
	if cfg.DiscardOnceSeq > 0 {
		log.Printf("fault injection armed: segment %d will be discarded once", cfg.DiscardOnceSeq)
	}
	ra := receiver.NewAssembler(receiver.NewDropGate(cfg.DiscardOnceSeq), view.ReceiveIdleTimeout)
	result, runErr := ra.Run(ctx, conn, sink, pending)
	record.Bytes = result.Bytes
	record.Segments = result.Segments
	record.DroppedBadSum = result.DroppedBadSum
	flushErr := sink.inner.Flush()
	if closeErr := fh.Close(); flushErr == nil {
		flushErr = closeErr
	}
	if runErr == nil {
		runErr = flushErr
	}
	if runErr != nil {
		return tr.finish(instance, record, runErr)
	}
	log.Printf("file '%s' received, %d byte(s) in %d segment(s)", outputName, result.Bytes, result.Segments)
	if tr.storage != nil {
		tr.storage.StoreFile(outputName)
	}
	return tr.finish(instance, record, nil)
}

// GetStatus
// returns the current transfer status
func (tr *transferInternal) GetStatus() view.CallResult {
	tr.lock.Lock()
	instance := tr.active
	tr.lock.Unlock()
	if instance != nil {
		instance.lock.Lock()
		defer instance.lock.Unlock()
		return view.CallResult{
			Status:   view.TransStateToReqStatus(instance.state),
			Id:       instance.id,
			Received: instance.received,
		}
	}
	return view.CallResult{Status: view.RequestStatusNone, Id: view.EmptyString}
}

// Close
// flushes the trace and hands it over to the cloud storage
func (tr *transferInternal) Close() {
	if tr.recorder != nil {
		if err := tr.recorder.Close(); err != nil {
			log.Warnf("unable to close trace file. Error: %v", err)
		}
		if tr.storage != nil && tr.serviceConfig.TraceFile != view.EmptyString {
			tr.storage.StoreFile(path.Join(tr.serviceConfig.WorkDirectory, tr.serviceConfig.TraceFile))
		}
		tr.recorder = nil
	}
}

// internal functions

// admit
// registers a new active transfer or rejects a concurrent one
func (tr *transferInternal) admit(id string, role string) (*activeTransfer, error) {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tr.active != nil {
		st := tr.active.currentState()
		if st != view.TransStateCompleted && st != view.TransStateFailed && st != view.TransStateClosed {
			return nil, fmt.Errorf("another transfer '%s' has already started", tr.active.id)
		}
	}
	if id == view.EmptyString {
		id = utils.MakeUniqueId()
	}
	tr.active = &activeTransfer{id: id, role: role, state: view.TransStateClosed}
	return tr.active, nil
}

// finish
// records the outcome, notifies the webhook and logs the throughput
func (tr *transferInternal) finish(instance *activeTransfer, record entities.TransferRecord, runErr error) (entities.TransferRecord, error) {
	record.Duration = time.Since(record.StartedAt)
	record.ThroughputMbps = entities.Throughput(record.Bytes, record.Duration)
	if runErr == nil {
		instance.setState(view.TransStateCompleted)
		record.Status = view.RequestStatusCompleted
		log.Printf("transfer '%s' finished: %d byte(s) in %s, %.3f Mbps",
			record.Id, record.Bytes, record.Duration.String(), record.ThroughputMbps)
	} else {
		instance.setState(view.TransStateFailed)
		record.Status = view.RequestStatusFailed
		log.Errorf("transfer '%s' failed after %s: %v", record.Id, record.Duration.String(), runErr)
	}
	if tr.journal != nil {
		if err := tr.journal.Append(record); err != nil {
			log.Warnf("unable to journal transfer %s. Error: %v", record.Id, err)
		}
	}
	if tr.notifier != nil {
		tr.notifier.TransferComplete(record)
	}
	return record, runErr
}

// outputFileName
// picks the explicit name or generates a distinctive one
func (tr *transferInternal) outputFileName(cfg entities.ServerConfig, id string) string {
	if cfg.OutputFile != view.EmptyString {
		if path.IsAbs(cfg.OutputFile) {
			return cfg.OutputFile
		}
		return path.Join(tr.serviceConfig.WorkDirectory, cfg.OutputFile)
	}
	return path.Join(tr.serviceConfig.WorkDirectory,
		fmt.Sprintf("received_%s_%s.bin", id, tr.serviceConfig.InstanceId))
}

// activeTransfer member functions

// setState
// internal, locking state setter
func (instance *activeTransfer) setState(status view.TransferState) {
	instance.lock.Lock()
	instance.state = status
	instance.lock.Unlock()
}

func (instance *activeTransfer) currentState() view.TransferState {
	instance.lock.Lock()
	defer instance.lock.Unlock()
	return instance.state
}

func (instance *activeTransfer) addReceived(n int64) {
	instance.lock.Lock()
	instance.received += n
	instance.lock.Unlock()
}
