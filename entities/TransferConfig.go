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

package entities

import (
	"fmt"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/view"
)

// TransferServiceConfig
// static agent-wide settings, shared by both roles
type TransferServiceConfig struct {
	WorkDirectory string // local path to store received files and trace data
	TraceFile     string // optional pcap trace file name, empty turns tracing off
	InstanceId    string // process instance ID for making distinctive file names
}

// ClientConfig
// per-run options for the sending role
type ClientConfig struct {
	TransferServiceConfig
	Id                string        // transfer id
	FilePath          string        // file to send
	WindowSize        uint16        // configured sliding window size (may be clamped by the server)
	RetransmitTimeout time.Duration // data phase retransmission timeout
	HandshakeTimeout  time.Duration // connect/teardown reply timeout
	HandshakeRetries  int           // connect/teardown attempt bound
}

// ServerConfig
// per-run options for the receiving role
type ServerConfig struct {
	TransferServiceConfig
	Id               string        // transfer id
	OutputFile       string        // where to write the reconstructed file, empty means a generated name
	DiscardOnceSeq   uint32        // sequence number to silently drop exactly once, 0 turns the hook off
	AdvertisedWindow uint16        // window advertised to the client in the SYN-ACK
	HandshakeTimeout time.Duration // final-ACK and teardown reply timeout
}

// MakeClientConfig
// fills defaults and validates the sending role options
func MakeClientConfig(svc TransferServiceConfig, filePath string, windowSize int) (ClientConfig, error) {
	if filePath == view.EmptyString {
		return ClientConfig{}, fmt.Errorf("file path required for the client role")
	}
	if windowSize <= 0 {
		windowSize = view.DefaultWindowSize
	}
	if windowSize > view.MaxWindowSize {
		windowSize = view.MaxWindowSize
	}
	return ClientConfig{
		TransferServiceConfig: svc,
		FilePath:              filePath,
		WindowSize:            uint16(windowSize),
		RetransmitTimeout:     view.DefaultRetransmitTimeout,
		HandshakeTimeout:      view.DefaultHandshakeTimeout,
		HandshakeRetries:      view.DefaultHandshakeRetries,
	}, nil
}

// MakeServerConfig
// fills defaults for the receiving role options
func MakeServerConfig(svc TransferServiceConfig, outputFile string, discardSeq int) ServerConfig {
	var discard uint32 = 0
	if discardSeq > 0 {
		discard = uint32(discardSeq)
	}
	return ServerConfig{
		TransferServiceConfig: svc,
		OutputFile:            outputFile,
		DiscardOnceSeq:        discard,
		AdvertisedWindow:      view.MaxWindowSize,
		HandshakeTimeout:      view.DefaultHandshakeTimeout,
	}
}
