// Command sweep prunes stale temporary uploads from the command line. Dry
// run by default; pass -delete to actually remove files. Meant for cron in
// deployments that disable the inline post-upload sweep.
package main

import (
	"context"
	"flag"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/rohits-web03/dropkeep/internal/chunk"
	"github.com/rohits-web03/dropkeep/internal/config"
	"github.com/rohits-web03/dropkeep/internal/repositories"
	"github.com/rohits-web03/dropkeep/internal/session"
	"github.com/rohits-web03/dropkeep/internal/upload"
)

func main() {
	doDelete := flag.Bool("delete", false, "actually delete stale files (default dry-run)")
	limit := flag.Int("limit", 0, "max rows to sweep (0 = configured default)")
	flag.Parse()

	cfg := config.Envs
	repositories.ConnectDatabase()

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
		Folder:         cfg.Upload.Folder,
		SweepThreshold: cfg.Upload.SweepThreshold,
		SweepLimit:     cfg.Upload.SweepLimit,
		DevMode:        cfg.Development(),
	}, repositories.NewFileStore(repositories.DB), assets, assembler, session.NoopTracker{}, log.Default())
	if err != nil {
		log.Fatal("Failed to configure upload service", "err", err)
	}

	swept, err := svc.Sweep(context.Background(), *doDelete, *limit)
	if err != nil {
		log.Fatal("Sweep failed", "err", err)
	}

	for _, f := range swept {
		log.Info("stale temporary file", "id", f.ID, "name", f.Name, "created", f.CreatedAt)
	}
	if *doDelete {
		log.Info("Deleted stale temporary files", "count", len(swept))
	} else {
		log.Info("Dry run complete, pass -delete to remove", "count", len(swept))
	}
}
