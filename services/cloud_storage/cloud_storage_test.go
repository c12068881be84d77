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

package cloud_storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/stretchr/testify/assert"
)

// drainStorage
// asks the storage to stop and reports whether its goroutine was still
// serving the queue
func drainStorage(cs CloudStorage) bool {
	done := make(chan struct{})
	go func() {
		cs.StoreFile(BreakTheLoop)
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(time.Second * 2):
		return false
	}
}

func TestStoreFileSurvivesBrokenClient(t *testing.T) {
	// a certificate that is not valid base64 leaves the storage with a
	// client that carries an initialization error instead of a connection
	creds := entities.MinioStorageCreds{
		IsActive:        true,
		Endpoint:        "minio.invalid:9000",
		Crt:             "%%%not-base64%%%",
		AccessKeyId:     "key",
		SecretAccessKey: "secret",
		BucketName:      "transfers",
	}
	filePath := filepath.Join(t.TempDir(), "transfer.bin")
	assert.NoError(t, os.WriteFile(filePath, []byte("payload"), 0o644))

	cs := NewCloudStorage(creds, false)
	cs.StoreFile(filePath)
	assert.True(t, drainStorage(cs), "store goroutine died on a broken client")
}

func TestStoreFileInactiveStorage(t *testing.T) {
	cs := NewCloudStorage(entities.MinioStorageCreds{IsActive: false}, false)
	cs.StoreFile("/nonexistent/transfer.bin")
	cs.StoreFile("")
	assert.True(t, drainStorage(cs), "store goroutine died while inactive")
}
