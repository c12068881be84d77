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
	"encoding/json"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/view"
)

// TransferRecord
// outcome of a single run, persisted in the journal and sent to the webhook
type TransferRecord struct {
	Id             string             `json:"id"`
	Role           string             `json:"role"` // "client" or "server"
	Status         view.RequestStatus `json:"status"`
	FileName       string             `json:"file_name,omitempty"`
	Bytes          int64              `json:"bytes"`
	Segments       int                `json:"segments"`
	Retransmits    int                `json:"retransmits,omitempty"`
	DroppedBadSum  int                `json:"dropped_bad_checksum,omitempty"`
	StartedAt      time.Time          `json:"started_at"`
	Duration       time.Duration      `json:"duration"`
	ThroughputMbps float64            `json:"throughput_mbps"`
}

// MarshalRecord
// converts a record into journal/webhook bytes
func MarshalRecord(rec TransferRecord) ([]byte, error) {
	return json.Marshal(rec)
}

// UnmarshalRecord
// converts journal bytes back into a record
func UnmarshalRecord(rec *TransferRecord, bytes []byte) error {
	return json.Unmarshal(bytes, rec)
}

// Throughput
// megabits per second over the transfer wall time
func Throughput(bytes int64, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	return float64(bytes*8) / (duration.Seconds() * 1000000)
}
