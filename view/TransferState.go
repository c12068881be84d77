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

type RequestStatus string
type TransferState int

// Connection lifecycle constants
const (
	TransStateClosed TransferState = iota
	TransStateSynSent
	TransStateSynReceived
	TransStateEstablished
	TransStateFinSent
	TransStateFinReceived
	TransStateCompleted
	TransStateFailed
)

// Status constant values
const (
	RequestStatusNone        RequestStatus = "NONE"
	RequestStatusConnecting  RequestStatus = "CONNECTING"
	RequestStatusEstablished RequestStatus = "ESTABLISHED"
	RequestStatusClosing     RequestStatus = "CLOSING"
	RequestStatusCompleted   RequestStatus = "COMPLETED"
	RequestStatusFailed      RequestStatus = "FAILED"
)

type CallResult struct {
	Status   RequestStatus `json:"status,omitempty"`
	Id       string        `json:"id,omitempty"`
	Received int64         `json:"received,omitempty"`
}

// TransStateToReqStatus
// converts int state to text
func TransStateToReqStatus(state TransferState) RequestStatus {
	switch state {
	case TransStateSynSent, TransStateSynReceived:
		return RequestStatusConnecting
	case TransStateEstablished:
		return RequestStatusEstablished
	case TransStateFinSent, TransStateFinReceived:
		return RequestStatusClosing
	case TransStateCompleted:
		return RequestStatusCompleted
	case TransStateFailed:
		return RequestStatusFailed
	default:
		break
	}
	return RequestStatusNone
}
