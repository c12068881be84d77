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

package notify

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/Rabia4012/drtp-transfer-agent/utils"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	log "github.com/sirupsen/logrus"
	"gopkg.in/resty.v1"
)

// Notifier public interface
// posts a transfer outcome to the configured webhook
type Notifier interface {
	TransferComplete(rec entities.TransferRecord)
}

// notifierImpl an interface implementation
type notifierImpl struct {
	entities.WebhookConfig
}

// common functions

// NewNotifier
// creates an interface instance. An empty URL turns notifications into no-ops.
func NewNotifier(configuration entities.WebhookConfig) Notifier {
	return &notifierImpl{WebhookConfig: configuration}
}

// makeRequest
// prepares a webhook POST request
func makeRequest(apiKey string) *resty.Request {
	tr := http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}
	cl := http.Client{Transport: &tr, Timeout: time.Second * 60}

	client := resty.NewWithClient(&cl)
	req := client.R()
	req.SetHeader("Content-Type", "application/json")
	if apiKey != view.EmptyString {
		req.SetHeader(view.ApiKeyHeader, apiKey)
	}
	return req
}

// postRecord
// delivers one record, logging instead of failing the transfer
func postRecord(url string, apiKey string, rec entities.TransferRecord) {
	body, err := entities.MarshalRecord(rec)
	if err != nil {
		log.Errorf("unable to marshal record for transfer %s. Error: %v", rec.Id, err)
		return
	}
	req := makeRequest(apiKey)
	req.Body = body
	resp, errPost := req.Post(url)
	hStatus := http.StatusServiceUnavailable
	if resp != nil {
		hStatus = resp.StatusCode()
	}
	if errPost != nil {
		log.Errorf("error '%v' during webhook notification for transfer %s", errPost, rec.Id)
		return
	}
	if hStatus != http.StatusOK && hStatus != http.StatusAccepted && hStatus != http.StatusNoContent {
		log.Errorf("improper status '%v' during webhook notification for transfer %s", hStatus, rec.Id)
		return
	}
	log.Debugf("webhook notified about transfer %s (%s)", rec.Id, rec.Status)
}

// interface implementation functions

// TransferComplete
// notifies the webhook about a finished transfer asynchronously
func (n *notifierImpl) TransferComplete(rec entities.TransferRecord) {
	if n.URL == view.EmptyString {
		log.Debugf("no webhook configured, transfer %s not reported", rec.Id)
		return
	}
	utils.SafeAsync(func() {
		postRecord(n.URL, n.APIkey, rec) // +SafeAsync
	})
}
