package upload

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/rohits-web03/dropkeep/internal/models"
)

// Retention defaults: short in development so local databases stay clean,
// a day otherwise so slow form sessions survive.
const (
	devSweepThreshold  = 10 * time.Minute
	prodSweepThreshold = 24 * time.Hour
)

func (s *Service) sweepThreshold() time.Duration {
	if s.opts.SweepThreshold > 0 {
		return s.opts.SweepThreshold
	}
	if s.opts.DevMode {
		return devSweepThreshold
	}
	return prodSweepThreshold
}

// Sweep prunes temporary files older than the retention threshold, capped at
// limit rows. With doDelete false it is a dry run. The returned slice lists
// the files that were (or would be) removed. Stale range-blob directories of
// transfers that never completed are cleaned alongside.
func (s *Service) Sweep(ctx context.Context, doDelete bool, limit int) ([]models.File, error) {
	if limit <= 0 {
		limit = s.opts.SweepLimit
	}
	cutoff := s.now().Add(-s.sweepThreshold())

	batch, err := s.files.Temporaries(ctx, cutoff, limit)
	if err != nil {
		return nil, err
	}

	var swept []models.File
	for _, f := range batch {
		// The query already filters on cutoff; re-check so a mismatched
		// clock can never delete a fresh upload.
		if f.CreatedAt.After(cutoff) {
			continue
		}
		swept = append(swept, f)
		if !doDelete {
			continue
		}
		if f.Key != "" {
			if err := s.assets.Delete(ctx, f.Key); err != nil {
				return swept, err
			}
		}
		if err := s.chunks.Remove(f.ID); err != nil {
			return swept, err
		}
		if err := s.files.Delete(ctx, f.ID); err != nil {
			return swept, err
		}
	}

	if doDelete {
		if _, err := s.chunks.SweepStale(cutoff); err != nil {
			return swept, err
		}
		if len(swept) > 0 {
			ids := lo.Map(swept, func(f models.File, _ int) uint { return f.ID })
			s.log.Info("Swept stale temporary uploads", "count", len(swept), "ids", ids)
		}
	}
	return swept, nil
}
