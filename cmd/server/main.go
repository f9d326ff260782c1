package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgraph-io/badger/v4"
	"github.com/spf13/afero"

	"github.com/rohits-web03/dropkeep/internal/api"
	"github.com/rohits-web03/dropkeep/internal/chunk"
	"github.com/rohits-web03/dropkeep/internal/config"
	"github.com/rohits-web03/dropkeep/internal/repositories"
	"github.com/rohits-web03/dropkeep/internal/session"
	"github.com/rohits-web03/dropkeep/internal/upload"
)

func main() {
	cfg := config.Envs

	// Connect to database
	repositories.ConnectDatabase()

	// Session keystore for tracked upload ids
	sessionDB, err := badger.Open(badger.DefaultOptions(cfg.SessionDir).WithLogger(nil))
	if err != nil {
		log.Fatal("Failed to open session store", "err", err)
	}
	defer sessionDB.Close()
	tracker := session.NewBadgerTracker(sessionDB, 24*time.Hour)

	fs := afero.NewOsFs()
	assembler := chunk.NewAssembler(fs, cfg.Upload.ChunkDir)

	var assets repositories.AssetStore
	switch cfg.StorageBackend {
	case "s3":
		assets = repositories.NewS3Store(
			cfg.S3.AccessKeyID,
			cfg.S3.SecretAccessKey,
			cfg.S3.AccountID,
			cfg.S3.BucketName,
			cfg.S3.Region,
		)
	default:
		assets = repositories.NewLocalStore(fs, cfg.LocalStorageDir)
	}

	svc, err := upload.NewService(upload.Options{
		Field:             cfg.Upload.Field,
		Folder:            cfg.Upload.Folder,
		MaxFileSize:       cfg.Upload.MaxFileSizeBytes(),
		MaxFiles:          cfg.Upload.MaxFiles,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
		RenamePattern:     cfg.Upload.RenamePattern,
		SweepOnUpload:     cfg.Upload.SweepOnUpload,
		SweepThreshold:    cfg.Upload.SweepThreshold,
		SweepLimit:        cfg.Upload.SweepLimit,
		DevMode:           cfg.Development(),
	}, repositories.NewFileStore(repositories.DB), assets, assembler, tracker, log.Default())
	if err != nil {
		log.Fatal("Failed to configure upload service", "err", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: api.SetupRouter(svc),
		// Timeouts prevent resource exhaustion from slow clients. The write
		// timeout is generous because chunk PATCHes carry real payloads.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Info("Starting dropkeep server", "port", cfg.Port)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Could not listen", "port", cfg.Port, "err", err)
	}
}
