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

package service

import (
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/Rabia4012/drtp-transfer-agent/utils"

	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	log "github.com/sirupsen/logrus"
)

const (
	ListenAddress        = "LISTEN_ADDRESS"
	OriginAllowed        = "ORIGIN_ALLOWED"
	MinioAccessKeyId     = "STORAGE_SERVER_USERNAME"
	MinioSecretAccessKey = "STORAGE_SERVER_PASSWORD"
	MinioCrt             = "STORAGE_SERVER_CRT"
	MinioEndpoint        = "STORAGE_SERVER_URL"
	MinioBucketName      = "STORAGE_SERVER_BUCKET_NAME"
	MinioStorageActive   = "MINIO_STORAGE_ACTIVE"
	TransferDirectory    = "TRANSFER_DIRECTORY"
	TraceFileName        = "TRACE_FILE"
	WebhookURL           = "WEBHOOK_URL"
	APIkey               = "TRANSFER_API_KEY"
	ProductionMode       = "PRODUCTION_MODE"
)

type SystemInfoService interface {
	Init() error
	GetListenAddress() string
	GetOriginAllowed() string
	GetString(name string) string
	GetBool(name string) bool
	GetMinioCredentials() (*entities.MinioStorageCreds, error)
	GetInstanceId() string
	GetTransferConfig() entities.TransferServiceConfig
	GetWebhookConfig() entities.WebhookConfig
	GetApiKey() string
}

// common functions

// NewSystemInfoService
// creates an interface instance
func NewSystemInfoService() (SystemInfoService, error) {
	s := &systemInfoServiceImpl{
		systemInfoMap: make(map[string]interface{}),
		instanceId:    utils.MakeUniqueId(),
	}
	log.Printf("instance ID:%s", s.instanceId)
	if err := s.Init(); err != nil {
		log.Error("Failed to read system info: " + err.Error())
		return nil, err
	}
	return s, nil
}

// systemInfoServiceImpl an interface implementation
type systemInfoServiceImpl struct {
	systemInfoMap map[string]interface{} // parameters
	instanceId    string
}

// extractBoolDef
// extracts bool value from string with default value
func extractBoolDef(v string, defVal bool) bool {
	if v == view.EmptyString {
		return defVal
	}
	val, err := strconv.ParseBool(v)
	if err != nil {
		return defVal
	}
	return val
}

// extractBool
// extracts bool value from string. error, empty or absent value means 'false'
func extractBool(v string) bool {
	return extractBoolDef(v, false)
}

// interface functions

// Init
// loads configuration from the environment
func (g systemInfoServiceImpl) Init() error {
	// production mode (enable by default)
	g.systemInfoMap[ProductionMode] = extractBoolDef(os.Getenv(ProductionMode), true)
	// configuration parameters without validation
	g.systemInfoMap[OriginAllowed] = os.Getenv(OriginAllowed)
	g.systemInfoMap[TraceFileName] = os.Getenv(TraceFileName)
	g.systemInfoMap[WebhookURL] = os.Getenv(WebhookURL)
	// working directory, falls back to the temp dir
	workDir := os.Getenv(TransferDirectory)
	if workDir == view.EmptyString {
		workDir = os.TempDir()
	}
	g.systemInfoMap[TransferDirectory] = workDir
	// S3/Minio
	g.systemInfoMap[MinioAccessKeyId] = os.Getenv(MinioAccessKeyId)
	g.systemInfoMap[MinioSecretAccessKey] = os.Getenv(MinioSecretAccessKey)
	g.systemInfoMap[MinioCrt] = os.Getenv(MinioCrt)
	g.systemInfoMap[MinioEndpoint] = os.Getenv(MinioEndpoint)
	g.systemInfoMap[MinioBucketName] = os.Getenv(MinioBucketName)
	g.systemInfoMap[MinioStorageActive] = extractBool(os.Getenv(MinioStorageActive))
	apiKey := os.Getenv(APIkey)
	if apiKey == view.EmptyString {
		log.Warnln("API key empty or not present, status endpoint will accept any caller")
	} else {
		g.systemInfoMap[APIkey] = apiKey
	}
	// ListenAddress a.k.a. endpoint. empty value turns the status endpoint off
	sla := os.Getenv(ListenAddress)
	if sla != view.EmptyString {
		re := regexp.MustCompile(`^[^:]*:\d+$`)
		if !re.MatchString(sla) {
			return fmt.Errorf("invalid listen address: %s", sla)
		}
		g.systemInfoMap[ListenAddress] = sla
	}
	return nil
}

// GetListenAddress
// returns string value for ListenAddress
func (g systemInfoServiceImpl) GetListenAddress() string {
	return g.GetString(ListenAddress)
}

// GetOriginAllowed
// returns string value for OriginAllowed
func (g systemInfoServiceImpl) GetOriginAllowed() string {
	return g.GetString(OriginAllowed)
}

// GetString
// returns string by name or empty string when not found
func (g systemInfoServiceImpl) GetString(name string) string {
	if v, ok := g.systemInfoMap[name]; ok {
		return v.(string)
	}
	return ""
}

// GetBool
// get bool value from configuration
func (g systemInfoServiceImpl) GetBool(name string) bool {
	if v, ok := g.systemInfoMap[name]; ok {
		return v.(bool)
	}
	return false
}

// GetMinioCredentials
// constructs MINIO credentials from configuration
func (g systemInfoServiceImpl) GetMinioCredentials() (*entities.MinioStorageCreds, error) {
	return &entities.MinioStorageCreds{
		BucketName:           g.GetString(MinioBucketName),
		IsActive:             g.GetBool(MinioStorageActive),
		Endpoint:             g.GetString(MinioEndpoint),
		Crt:                  g.GetString(MinioCrt),
		AccessKeyId:          g.GetString(MinioAccessKeyId),
		SecretAccessKey:      g.GetString(MinioSecretAccessKey),
		CompressBeforeUpload: true,
	}, nil
}

// GetInstanceId
// returns unique instance Id, generated at start
func (g systemInfoServiceImpl) GetInstanceId() string {
	return g.instanceId
}

// GetTransferConfig
// collects the static transfer service configuration
func (g systemInfoServiceImpl) GetTransferConfig() entities.TransferServiceConfig {
	workDir := g.GetString(TransferDirectory)
	log.Printf("Work dir    :'%s'", workDir)
	log.Printf("Instance Id :%s", g.instanceId)
	return entities.TransferServiceConfig{
		WorkDirectory: workDir,
		TraceFile:     g.GetString(TraceFileName),
		InstanceId:    g.instanceId,
	}
}

// GetWebhookConfig
// collects the webhook notification configuration
func (g systemInfoServiceImpl) GetWebhookConfig() entities.WebhookConfig {
	return entities.WebhookConfig{
		URL:    g.GetString(WebhookURL),
		APIkey: g.GetApiKey(),
	}
}

func (g systemInfoServiceImpl) GetApiKey() string {
	return g.GetString(APIkey)
}
