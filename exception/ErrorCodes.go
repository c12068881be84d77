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

package exception

const EmptyParameter = "8"
const EmptyParameterMsg = "Parameter $param should not be empty"

const BadRequestBody = "10"
const BadRequestBodyMsg = "Failed to decode body"

// UnableToEstablish transfer codes and messages
const UnableToEstablish = "30000"
const UnableToEstablishMsg = "unable to establish the connection"
const UnableToTeardown = "30001"
const UnableToTeardownMsg = "unable to tear down the connection"
const UnableToOpenFile = "30002"
const UnableToOpenFileMsg = "unable to open the transfer file"
const TransferNotFound = "30003"
const TransferNotFoundMsg = "no transfer with id $id"
const ApiKeyNotMatch = "30004"
const ApiKeyNotMatchMsg = "API key not match"
