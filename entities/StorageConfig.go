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

// MinioStorageCreds
// S3/Minio connection settings for storing received files
type MinioStorageCreds struct {
	BucketName           string
	IsActive             bool
	Endpoint             string
	Crt                  string // base64 encoded server certificate, empty for plain TLS trust
	AccessKeyId          string
	SecretAccessKey      string
	CompressBeforeUpload bool
}

// WebhookConfig
// completion notification settings
type WebhookConfig struct {
	URL    string // POST target, empty turns notifications off
	APIkey string // optional api-key header value
}
