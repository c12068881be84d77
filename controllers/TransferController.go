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

package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/Rabia4012/drtp-transfer-agent/exception"
	"github.com/Rabia4012/drtp-transfer-agent/services/journal"
	"github.com/Rabia4012/drtp-transfer-agent/services/transfer"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

// endpoint paths
const (
	TransferStatusPath = "/api/v1/status"
	JournalPath        = "/api/v1/transfers"
	JournalRecordPath  = "/api/v1/transfers/{transferId}"
)

const HttpContentType = "Content-Type"

// Service
// an interface to controller
type Service interface {
	OnStatus(w http.ResponseWriter, r *http.Request)
	OnTransferStatus(w http.ResponseWriter, r *http.Request)
	OnJournal(w http.ResponseWriter, r *http.Request)
	OnJournalRecord(w http.ResponseWriter, r *http.Request)
}

type webService struct {
	tr     transfer.Transfer // local transfer service
	jr     journal.Journal   // stored transfer outcomes
	apiKey string            // empty value disables the check
}

// NewWebService
// creates a new web interface instance
func NewWebService(tr transfer.Transfer, jr journal.Journal, apiKey string) Service {
	return &webService{tr: tr, jr: jr, apiKey: apiKey}
}

func RespondWithJson(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set(HttpContentType, "application/json")
	w.WriteHeader(code)
	write, err := w.Write(response)
	if err != nil {
		log.Debugf("%d response bytes written with error: %v", write, err)
	}
}

func RespondWithCustomError(w http.ResponseWriter, err *exception.CustomError) {
	log.Debugf("Request failed. Code = %d. Message = %s. Params: %v. Debug: %s",
		err.Status, err.Message, err.Params, err.Debug)
	RespondWithJson(w, err.Status, err)
}

// checkApiKey
// rejects the request when the configured key does not match
func (ws *webService) checkApiKey(w http.ResponseWriter, r *http.Request) bool {
	if ws.apiKey == view.EmptyString {
		return true
	}
	if r.Header.Get(view.ApiKeyHeader) == ws.apiKey {
		return true
	}
	RespondWithCustomError(w, &exception.CustomError{
		Status:  http.StatusForbidden,
		Code:    exception.ApiKeyNotMatch,
		Message: exception.ApiKeyNotMatchMsg,
	})
	return false
}

// OnStatus
// liveness/readiness probe handler
func (ws *webService) OnStatus(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// OnTransferStatus
// reports the state of the transfer in progress
func (ws *webService) OnTransferStatus(w http.ResponseWriter, r *http.Request) {
	if !ws.checkApiKey(w, r) {
		return
	}
	RespondWithJson(w, http.StatusOK, ws.tr.GetStatus())
}

// OnJournal
// lists every recorded transfer outcome
func (ws *webService) OnJournal(w http.ResponseWriter, r *http.Request) {
	if !ws.checkApiKey(w, r) {
		return
	}
	if ws.jr == nil {
		RespondWithJson(w, http.StatusOK, []interface{}{})
		return
	}
	records, err := ws.jr.List()
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusInternalServerError,
			Code:    exception.TransferNotFound,
			Message: exception.TransferNotFoundMsg,
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, records)
}

// OnJournalRecord
// returns one recorded outcome by transfer id
func (ws *webService) OnJournalRecord(w http.ResponseWriter, r *http.Request) {
	if !ws.checkApiKey(w, r) {
		return
	}
	transferId := mux.Vars(r)["transferId"]
	if ws.jr == nil || transferId == view.EmptyString {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.EmptyParameter,
			Message: exception.EmptyParameterMsg,
			Params:  map[string]interface{}{"param": "transferId"},
		})
		return
	}
	rec, err := ws.jr.Get(transferId)
	if err != nil {
		RespondWithCustomError(w, &exception.CustomError{
			Status:  http.StatusNotFound,
			Code:    exception.TransferNotFound,
			Message: exception.TransferNotFoundMsg,
			Params:  map[string]interface{}{"id": transferId},
			Debug:   err.Error(),
		})
		return
	}
	RespondWithJson(w, http.StatusOK, rec)
}
