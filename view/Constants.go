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

package view

import "time"

const (
	EmptyString  = ""
	GzipSuffix   = ".gz"
	ApiKeyHeader = "api-key"
	// DefaultWindowSize outstanding segments allowed in flight when nothing else is configured
	DefaultWindowSize = 3
	// MaxWindowSize upper bound for both the configured and the advertised window
	MaxWindowSize = 64
	// DefaultRetransmitTimeout retransmission timeout for the data phase
	DefaultRetransmitTimeout = time.Millisecond * 400
	// DefaultHandshakeTimeout reply timeout for connect and teardown exchanges
	DefaultHandshakeTimeout = time.Millisecond * 400
	// DefaultHandshakeRetries attempts before a connect or teardown gives up
	DefaultHandshakeRetries = 5
	// DefaultPort UDP port used when no port option is given
	DefaultPort = 8088
	// ReceiveIdleTimeout how long the server keeps waiting for the next segment
	ReceiveIdleTimeout = time.Second * 30
	// TraceSnapLen snapshot length recorded into trace files
	TraceSnapLen = 2048
)
