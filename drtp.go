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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/Rabia4012/drtp-transfer-agent/controllers"
	"github.com/Rabia4012/drtp-transfer-agent/entities"
	"github.com/Rabia4012/drtp-transfer-agent/services/cloud_storage"
	"github.com/Rabia4012/drtp-transfer-agent/services/journal"
	"github.com/Rabia4012/drtp-transfer-agent/services/notify"
	"github.com/Rabia4012/drtp-transfer-agent/services/service"
	"github.com/Rabia4012/drtp-transfer-agent/services/transfer"
	"github.com/Rabia4012/drtp-transfer-agent/services/transport"
	"github.com/Rabia4012/drtp-transfer-agent/utils"
	"github.com/Rabia4012/drtp-transfer-agent/view"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
	"gopkg.in/natefinch/lumberjack.v2"
)

const journalName = "transfer_journal"

func makeServer(systemInfoService service.SystemInfoService, r *mux.Router) *http.Server {
	listenAddr := systemInfoService.GetListenAddress()

	log.Infof("Listen addr = %s", listenAddr)

	var corsOptions []handlers.CORSOption

	corsOptions = append(corsOptions,
		handlers.AllowedHeaders([]string{
			"Connection",
			"Accept-Encoding",
			"Content-Encoding",
			"X-Requested-With",
			controllers.HttpContentType,
			"Authorization"}))

	allowedOrigin := systemInfoService.GetOriginAllowed()
	if allowedOrigin != "" {
		corsOptions = append(corsOptions, handlers.AllowedOrigins([]string{allowedOrigin}))
	}
	corsOptions = append(corsOptions, handlers.AllowedMethods([]string{http.MethodPost, http.MethodGet}))

	return &http.Server{
		Handler:      handlers.CompressHandler(handlers.CORS(corsOptions...)(r)),
		Addr:         listenAddr,
		WriteTimeout: 300 * time.Second,
		ReadTimeout:  30 * time.Second,
	}
}

// init
// initialises logging
func init() {
	basePath := os.Getenv("BASE_PATH")
	if basePath == "" {
		basePath = "."
	}
	mw := io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename: path.Join(basePath, "logs", "drtp_transfer_agent.log"),
		MaxSize:  10, // megabytes
	})
	log.SetFormatter(&prefixed.TextFormatter{
		DisableColors:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	})
	logLevel, err := log.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = log.InfoLevel
	}
	log.SetLevel(logLevel)
	log.SetOutput(mw)
}

func main() {
	var (
		clientMode bool
		serverMode bool
		ipAddress  string
		port       int
		filePath   string
		windowSize int
		discardSeq int
		logLevel   string
	)
	flag.BoolVar(&clientMode, "c", false, "run as a client (send a file)")
	flag.BoolVar(&serverMode, "s", false, "run as a server (receive a file)")
	flag.StringVar(&ipAddress, "i", "127.0.0.1", "server IP address to connect or bind to")
	flag.IntVar(&port, "p", view.DefaultPort, "UDP port number")
	flag.StringVar(&filePath, "f", view.EmptyString, "file to send (client) or output file name (server)")
	flag.IntVar(&windowSize, "w", view.DefaultWindowSize, "sliding window size in segments")
	flag.IntVar(&discardSeq, "d", 0, "server only: discard this sequence number once to test retransmission")
	flag.StringVar(&logLevel, "log-level", view.EmptyString, "logging level: (trace, debug, info, warning, error, fatal, panic)")
	flag.Parse()
	if logLevel != view.EmptyString {
		if level, err := log.ParseLevel(logLevel); err == nil {
			log.SetLevel(level)
		} else {
			log.Warnf("unknown log level '%s' ignored", logLevel)
		}
	}
	if clientMode == serverMode {
		flag.Usage()
		log.Fatalln("exactly one of -c or -s is required")
	}
	systemInfoService, mandatoryServiceError := service.NewSystemInfoService()
	if mandatoryServiceError != nil {
		log.Fatalf("unable to prepare service configuration '%v'", mandatoryServiceError)
	}
	productionMode := systemInfoService.GetBool(service.ProductionMode)
	s3Config, err := systemInfoService.GetMinioCredentials()
	if err != nil {
		log.Fatalln(err)
	}
	cs3 := cloud_storage.NewCloudStorage(*s3Config, productionMode) // credentials + production mode flag
	defer cs3.StoreFile(cloud_storage.BreakTheLoop)                 // finish at the end
	transferConfig := systemInfoService.GetTransferConfig()
	jr, err := journal.NewJournal(journalName, transferConfig.WorkDirectory)
	if err != nil {
		log.Fatalf("unable to open the transfer journal: %v", err)
	}
	defer func() {
		if err := jr.Close(); err != nil {
			log.Warnf("unable to close the transfer journal: %v", err)
		}
	}()
	notifier := notify.NewNotifier(systemInfoService.GetWebhookConfig())
	ts, err := transfer.NewTransfer(transferConfig, cs3, jr, notifier)
	if err != nil {
		log.Fatalf("unable to create the transfer service: %v", err)
	}
	defer ts.Close()
	// optional status endpoint
	if systemInfoService.GetListenAddress() != view.EmptyString {
		ws := controllers.NewWebService(ts, jr, systemInfoService.GetApiKey())
		utils.SafeAsync(func() {
			r := mux.NewRouter()
			r.SkipClean(true)
			r.UseEncodedPath()
			r.HandleFunc(controllers.TransferStatusPath, ws.OnTransferStatus).Methods(http.MethodGet)
			r.HandleFunc(controllers.JournalPath, ws.OnJournal).Methods(http.MethodGet)
			r.HandleFunc(controllers.JournalRecordPath, ws.OnJournalRecord).Methods(http.MethodGet)
			r.HandleFunc("/live", ws.OnStatus).Methods(http.MethodGet)
			r.HandleFunc("/ready", ws.OnStatus).Methods(http.MethodGet)
			srv := makeServer(systemInfoService, r)
			log.Errorf("status endpoint stopped: %v", srv.ListenAndServe())
		}) // +SafeAsync
	}
	addr := fmt.Sprintf("%s:%d", ipAddress, port)
	if clientMode {
		runClient(ts, transferConfig, addr, filePath, windowSize)
	} else {
		runServer(ts, transferConfig, addr, filePath, discardSeq)
	}
}

// runClient
// dials the server and pushes the file through the protocol
func runClient(ts transfer.Transfer, svcConfig entities.TransferServiceConfig, addr string, filePath string, windowSize int) {
	cfg, err := entities.MakeClientConfig(svcConfig, filePath, windowSize)
	if err != nil {
		log.Fatalf("invalid client configuration: %v", err)
	}
	conn, err := transport.Dial(addr)
	if err != nil {
		log.Fatalf("unable to reach '%s': %v", addr, err)
	}
	defer func() {
		_ = conn.Close()
	}()
	log.Printf("sending '%s' to %s, window %d", filePath, addr, cfg.WindowSize)
	if _, err := ts.RunClient(context.Background(), conn, cfg); err != nil {
		log.Fatalf("transfer failed: %v", err)
	}
}

// runServer
// binds the UDP port and receives one file
func runServer(ts transfer.Transfer, svcConfig entities.TransferServiceConfig, addr string, outputFile string, discardSeq int) {
	cfg := entities.MakeServerConfig(svcConfig, outputFile, discardSeq)
	conn, err := transport.Listen(addr)
	if err != nil {
		log.Fatalf("unable to listen at '%s': %v", addr, err)
	}
	defer func() {
		_ = conn.Close()
	}()
	log.Printf("waiting for a connection at %s", addr)
	if _, err := ts.RunServer(context.Background(), conn, cfg); err != nil {
		log.Fatalf("transfer failed: %v", err)
	}
}
