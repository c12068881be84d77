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
	"testing"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/view"
	"github.com/stretchr/testify/assert"
)

func TestMakeClientConfig(t *testing.T) {
	svc := TransferServiceConfig{WorkDirectory: "/tmp", InstanceId: "test"}
	cfg, err := MakeClientConfig(svc, "payload.bin", 0)
	assert.NoError(t, err)
	assert.Equal(t, uint16(view.DefaultWindowSize), cfg.WindowSize)
	assert.Equal(t, view.DefaultRetransmitTimeout, cfg.RetransmitTimeout)
	assert.Equal(t, view.DefaultHandshakeRetries, cfg.HandshakeRetries)

	cfg, err = MakeClientConfig(svc, "payload.bin", view.MaxWindowSize+100)
	assert.NoError(t, err)
	assert.Equal(t, uint16(view.MaxWindowSize), cfg.WindowSize)

	_, err = MakeClientConfig(svc, view.EmptyString, 3)
	assert.Error(t, err)
}

func TestMakeServerConfig(t *testing.T) {
	svc := TransferServiceConfig{WorkDirectory: "/tmp", InstanceId: "test"}
	cfg := MakeServerConfig(svc, view.EmptyString, -1)
	assert.Equal(t, uint32(0), cfg.DiscardOnceSeq)
	assert.Equal(t, uint16(view.MaxWindowSize), cfg.AdvertisedWindow)

	cfg = MakeServerConfig(svc, "out.bin", 2)
	assert.Equal(t, uint32(2), cfg.DiscardOnceSeq)
	assert.Equal(t, "out.bin", cfg.OutputFile)
}

func TestTransferRecordRoundTrip(t *testing.T) {
	rec := TransferRecord{
		Id:             "abc",
		Role:           "server",
		Status:         view.RequestStatusCompleted,
		Bytes:          1000000,
		Segments:       1009,
		StartedAt:      time.Now().UTC().Truncate(time.Second),
		Duration:       time.Second,
		ThroughputMbps: Throughput(1000000, time.Second),
	}
	body, err := MarshalRecord(rec)
	assert.NoError(t, err)
	got := TransferRecord{}
	assert.NoError(t, UnmarshalRecord(&got, body))
	assert.Equal(t, rec, got)
}

func TestThroughput(t *testing.T) {
	// one megabyte in one second is eight megabits per second
	assert.InDelta(t, 8.0, Throughput(1000000, time.Second), 0.001)
	assert.Equal(t, 0.0, Throughput(1000, 0))
}
