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
	"bytes"
	"compress/gzip"
	"context"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/Rabia4012/drtp-transfer-agent/utils"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	"github.com/minio/minio-go/v7"
	log "github.com/sirupsen/logrus"
)

// CloudStorage public interface
// accepts local file paths and uploads them in the background
type CloudStorage interface {
	StoreFile(fileName string)
}

type Request struct {
	FilePath string
}

// cloudStorage an interface implementation
type cloudStorage struct {
	inputQueue         chan Request
	lock               sync.Mutex
	storageCredentials entities.MinioStorageCreds
	minioClient        *minioClient
	productionMode     bool
}

type minioClient struct {
	client *minio.Client
	error  error
}

const BreakTheLoop = "BREAK!"
const TableName = "FileTransfers"
const storeAttempts = 3

// common functions

// mustGetSystemCertPool
// acquires certification pool
func mustGetSystemCertPool() *x509.CertPool {
	pool, err := x509.SystemCertPool()
	if err != nil {
		return x509.NewCertPool()
	}
	return pool
}

// createMinioClient
// creates minio instance
func createMinioClient(minioCredentials *entities.MinioStorageCreds) *minioClient {
	if !minioCredentials.IsActive {
		return nil // inactive storage does not require full fledged client
	}
	client := new(minioClient)
	tr, err := minio.DefaultTransport(true)
	if err != nil {
		log.Warnf("error creating the minio connection: error creating the default transport layer: %v", err)
		client.error = err
		return client
	}
	decodedCert, err := base64.StdEncoding.DecodeString(minioCredentials.Crt)
	if err != nil {
		log.Warn(err.Error())
		client.error = err
		return client
	}
	rootCAs := mustGetSystemCertPool()
	if len(decodedCert) > 0 {
		rootCAs.AppendCertsFromPEM(decodedCert)
	}
	tr.TLSClientConfig.RootCAs = rootCAs

	mc, err := minio.New(minioCredentials.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(minioCredentials.AccessKeyId, minioCredentials.SecretAccessKey, ""),
		Secure:    true,
		Transport: tr,
	})
	if err != nil {
		log.Warn(err.Error())
		client.error = err
		return client
	}
	log.Infof("MINIO instance initialized")
	client.client = mc
	return client
}

// NewCloudStorage
// creates interface instance
func NewCloudStorage(minioCredentials entities.MinioStorageCreds, productionMode bool) CloudStorage {
	ret := &cloudStorage{
		inputQueue:         make(chan Request),
		lock:               sync.Mutex{},
		storageCredentials: minioCredentials,
		minioClient:        createMinioClient(&minioCredentials),
		productionMode:     productionMode,
	}
	utils.SafeAsync(func() {
		storeProcedure(ret, ret.inputQueue)
	}) // +SafeAsync
	return ret
}

// compressFile
// produces <path>.gz next to the input and returns the new path
func (s3 *cloudStorage) compressFile(req Request) (string, error) {
	inputFile, err := os.Open(req.FilePath)
	if err != nil {
		return req.FilePath, fmt.Errorf("unable to open file '%s' to compress it. Error: %v", req.FilePath, err)
	}
	defer func(fh *os.File) {
		_ = fh.Close()
	}(inputFile)
	outputFileName := req.FilePath + view.GzipSuffix
	outputFile, err := os.Create(outputFileName)
	if err != nil {
		return req.FilePath, fmt.Errorf("unable to create compressed file '%s'. Error: %v", outputFileName, err)
	}
	wz := gzip.NewWriter(outputFile)
	wz.Name = filepath.Base(req.FilePath) // set filename in archive metadata
	_, err = io.Copy(wz, inputFile)
	if closeErr := wz.Close(); err == nil {
		err = closeErr
	}
	if closeErr := outputFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		if rmErr := os.Remove(outputFileName); rmErr != nil {
			log.Errorf("unable to remove improperly compressed file '%s'. Error: %v", outputFileName, rmErr)
		}
		return req.FilePath, err
	}
	if s3.productionMode {
		if rmErr := os.Remove(req.FilePath); rmErr != nil {
			log.Errorf("unable to delete uncompressed input file '%s'. Error: %v", req.FilePath, rmErr)
		}
	} else {
		log.Debugf("file '%s' was not deleted in non-production mode", req.FilePath)
	}
	return outputFileName, nil
}

// storeProcedure
// goroutine to serve file storing
func storeProcedure(s3 *cloudStorage, inputQueue chan Request) {
	for {
		req := <-inputQueue
		if req.FilePath == view.EmptyString {
			continue
		}
		if req.FilePath == BreakTheLoop {
			break
		}
		if !s3.storageCredentials.IsActive {
			log.Printf("storage inactive. do not store file %s", req.FilePath)
			continue
		}
		if s3.minioClient == nil || s3.minioClient.error != nil || s3.minioClient.client == nil {
			log.Errorf("storage client unavailable. do not store file %s", req.FilePath)
			continue
		}
		// compress file contents
		if s3.storageCredentials.CompressBeforeUpload && !strings.HasSuffix(req.FilePath, view.GzipSuffix) {
			compressed, err := s3.compressFile(req)
			if err != nil || compressed == req.FilePath {
				log.Warnf("unable to compress file '%s'. Error: %v", req.FilePath, err)
				continue
			}
			req.FilePath = compressed
		}
		// let's make a couple attempts to store file
		for i := 0; i < storeAttempts; i++ {
			fileBytes, err := os.ReadFile(req.FilePath)
			if err != nil {
				log.Errorf("unable to read file '%s'. Error: %v", req.FilePath, err)
				break
			}
			ctx := context.Background()
			if err := s3.createBucketIfNotExists(ctx); err != nil {
				log.Errorf("unable to acquire bucket for file '%s'. Error: '%v'", req.FilePath, err)
				continue
			}
			err = s3.UploadFile(ctx, TableName, filepath.Base(req.FilePath), fileBytes)
			if err != nil {
				log.Errorf("unable to store file '%s'. Error: %v", req.FilePath, err)
				continue
			}
			log.Printf("stored %d byte(s) from file '%s' in s3/minio", len(fileBytes), req.FilePath)
			if s3.productionMode {
				if rmErr := os.Remove(req.FilePath); rmErr != nil {
					log.Warnf("unable to delete stored file %s. Error: %v", req.FilePath, rmErr)
				}
			} else {
				log.Debugf("file '%s' was not deleted in non-production mode", req.FilePath)
			}
			break
		}
	}
}

func bucketExists(ctx context.Context, minioClient *minio.Client, bucketName string) (bool, error) {
	exists, err := minioClient.BucketExists(ctx, bucketName)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func buildFileName(tableName, entityId string) string {
	return fmt.Sprintf("%s/%s", tableName, entityId)
}

// interface implementation

// StoreFile
// function to receive file store requests
func (s3 *cloudStorage) StoreFile(fileName string) {
	s3.inputQueue <- Request{FilePath: fileName}
	log.Debugf("requested to store file: %s", fileName)
}

// functions

func (s3 *cloudStorage) createBucketIfNotExists(ctx context.Context) error {
	exists, err := bucketExists(ctx, s3.minioClient.client, s3.storageCredentials.BucketName)
	if err != nil {
		return err
	}
	if exists {
		log.Debugf("Using S3/Minio bucket '%s'", s3.storageCredentials.BucketName)
		return nil
	}
	err = s3.minioClient.client.MakeBucket(ctx, s3.storageCredentials.BucketName, minio.MakeBucketOptions{})
	if err != nil {
		return err
	}
	log.Debugf("S3/Minio bucket '%s' has been created", s3.storageCredentials.BucketName)
	return nil
}

func (s3 *cloudStorage) UploadFile(ctx context.Context, tableName, entityId string, content []byte) error {
	return s3.putObject(ctx, buildFileName(tableName, entityId), content)
}

func (s3 *cloudStorage) putObject(ctx context.Context, fileName string, content []byte) error {
	_, err := s3.minioClient.client.PutObject(ctx, s3.storageCredentials.BucketName, fileName,
		bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{})
	return err
}
