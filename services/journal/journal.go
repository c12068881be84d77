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

package journal

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	"github.com/akrylysov/pogreb"
	log "github.com/sirupsen/logrus"
)

const (
	ErrorJournalIsNil     = "transfer journal %s is nil"
	ErrorJournalLookup    = "journal %s lookup failed for transfer %s. Error %v"
	ErrorJournalStore     = "journal %s failed to store record for transfer %s. Error %v"
	ErrorJournalMarshal   = "journal %s failed to encode record for transfer %s. Error %v"
	ErrorJournalEmptyId   = "empty transfer id is not allowed in journal %s"
	ErrorIteratorIsNil    = "returned journal %s iterator is nil"
	ErrorRecordNotInStore = "no record for transfer %s in journal %s"
)

// Journal
// durable per-transfer outcome store, keyed by transfer id
type Journal interface {
	Append(rec entities.TransferRecord) error
	Get(transferId string) (entities.TransferRecord, error)
	List() ([]entities.TransferRecord, error)
	Count() int
	Sync() int
	Close() error
}

// journalImpl an interface implementation
type journalImpl struct {
	db          *pogreb.DB
	journalName string
	journalDir  string
}

// NewJournal
// opens (or creates) the journal database under journalDir
func NewJournal(journalName string, journalDir string) (Journal, error) {
	if journalDir == view.EmptyString {
		journalDir = os.TempDir()
	}
	journalPath := filepath.Join(journalDir, journalName)
	db, err := pogreb.Open(journalPath, nil)
	if err != nil {
		return nil, err
	}
	return &journalImpl{
		db:          db,
		journalName: journalName,
		journalDir:  journalPath,
	}, nil
}

// Append
// stores the record, replacing any previous one with the same transfer id
func (j *journalImpl) Append(rec entities.TransferRecord) error {
	if j == nil || j.db == nil {
		return fmt.Errorf(ErrorJournalIsNil, rec.Id)
	}
	if rec.Id == view.EmptyString {
		return fmt.Errorf(ErrorJournalEmptyId, j.journalName)
	}
	body, err := entities.MarshalRecord(rec)
	if err != nil {
		return fmt.Errorf(ErrorJournalMarshal, j.journalName, rec.Id, err)
	}
	key := []byte(rec.Id)
	found, err := j.db.Has(key)
	if err != nil {
		return fmt.Errorf(ErrorJournalLookup, j.journalName, rec.Id, err)
	}
	if found {
		log.Debugf("journal %s replaces record for transfer %s", j.journalName, rec.Id)
	}
	if err := j.db.Put(key, body); err != nil {
		return fmt.Errorf(ErrorJournalStore, j.journalName, rec.Id, err)
	}
	return nil
}

// Get
// returns the stored record for the given transfer id
func (j *journalImpl) Get(transferId string) (entities.TransferRecord, error) {
	rec := entities.TransferRecord{}
	if j == nil || j.db == nil {
		return rec, fmt.Errorf(ErrorJournalIsNil, transferId)
	}
	if transferId == view.EmptyString {
		return rec, fmt.Errorf(ErrorJournalEmptyId, j.journalName)
	}
	body, err := j.db.Get([]byte(transferId))
	if err != nil {
		return rec, fmt.Errorf(ErrorJournalLookup, j.journalName, transferId, err)
	}
	if body == nil {
		return rec, fmt.Errorf(ErrorRecordNotInStore, transferId, j.journalName)
	}
	err = entities.UnmarshalRecord(&rec, body)
	return rec, err
}

// List
// returns every stored record, unordered
func (j *journalImpl) List() ([]entities.TransferRecord, error) {
	if j == nil || j.db == nil {
		return nil, fmt.Errorf(ErrorJournalIsNil, view.EmptyString)
	}
	iterator := j.db.Items()
	if iterator == nil {
		return nil, fmt.Errorf(ErrorIteratorIsNil, j.journalName)
	}
	records := make([]entities.TransferRecord, 0, j.db.Count())
	for {
		key, body, err := iterator.Next()
		if err == pogreb.ErrIterationDone {
			break
		}
		if err != nil {
			return records, err
		}
		rec := entities.TransferRecord{}
		if err := entities.UnmarshalRecord(&rec, body); err != nil {
			log.Warnf("journal %s skips undecodable record %s. Error: %v", j.journalName, string(key), err)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count
// returns stored record count
func (j *journalImpl) Count() int {
	if j.db != nil {
		return int(j.db.Count())
	}
	return -1
}

// Sync
// flush journal data on disk
func (j *journalImpl) Sync() int {
	if j.db != nil {
		if j.db.Sync() == nil {
			return int(j.db.Count())
		}
	}
	return -1
}

// Close
// closes the underlying database, keeping the files for the next run
func (j *journalImpl) Close() error {
	if j.db == nil {
		return fmt.Errorf(ErrorJournalIsNil, j.journalName)
	}
	recCnt := j.db.Count()
	err := j.db.Close()
	if err == nil {
		log.Debugf("journal %s closed (%d record(s))", j.journalName, recCnt)
		j.db = nil
	}
	return err
}
