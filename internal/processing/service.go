package processing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/morph"
	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/internal/storage"
	"github.com/dendralab/dendra/pkg/models"
)

// syncWorkers bounds concurrent per-specimen file downloads.
const syncWorkers = 4

// Upstream is the slice of the catalog client the sync pipeline uses
type Upstream interface {
	ListSpecimens(ctx context.Context, species string, limit int) ([]atlas.SpecimenDetail, error)
	GetEphysFeatures(ctx context.Context, specimenIDs []int64) ([]atlas.EphysFeatureRecord, error)
	GetReconstruction(ctx context.Context, specimenID int64) (*atlas.ReconstructionRecord, error)
	DownloadFile(ctx context.Context, fileID int64, w io.Writer) (int64, error)
}

type SyncService interface {
	ProcessSync(ctx context.Context, jobID uuid.UUID) error
}

type syncService struct {
	upstream Upstream
	cache    *cache.Cache
	store    storage.BlobStore // nil when mirroring is disabled
	cells    repository.CellRepository
	features repository.FeatureRepository
	jobs     repository.SyncJobRepository
	limit    int
}

func NewSyncService(upstream Upstream, fileCache *cache.Cache, store storage.BlobStore, cells repository.CellRepository, features repository.FeatureRepository, jobs repository.SyncJobRepository, limit int) SyncService {
	return &syncService{
		upstream: upstream,
		cache:    fileCache,
		store:    store,
		cells:    cells,
		features: features,
		jobs:     jobs,
		limit:    limit,
	}
}

func (s *syncService) ProcessSync(ctx context.Context, jobID uuid.UUID) error {
	// Step 1: Update to running status
	if err := s.jobs.UpdateStatus(ctx, jobID, "running", 10); err != nil {
		return err
	}

	// Step 2: Get job details
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return err
	}

	// Step 3: Pull the specimen catalog
	limit := job.Limit
	if limit <= 0 {
		limit = s.limit
	}
	specimens, err := s.upstream.ListSpecimens(ctx, job.Species, limit)
	if err != nil {
		s.jobs.UpdateError(ctx, jobID, fmt.Sprintf("Failed to query cell catalog: %v", err))
		return nil // Don't return error, status is updated to failed
	}
	if len(specimens) == 0 {
		s.jobs.UpdateError(ctx, jobID, fmt.Sprintf("No specimens matched species %q", job.Species))
		return nil // Don't return error, status is updated to failed
	}
	if err := s.jobs.UpdateCounts(ctx, jobID, len(specimens), 0); err != nil {
		return err
	}

	// Step 4: Upsert the cell catalog
	cells := make([]models.Cell, 0, len(specimens))
	ids := make([]int64, 0, len(specimens))
	for i := range specimens {
		cell := cellFromSpecimen(&specimens[i])
		if err := s.cells.Upsert(ctx, cell); err != nil {
			return fmt.Errorf("failed to upsert cell %d: %w", cell.ID, err)
		}
		cells = append(cells, *cell)
		ids = append(ids, cell.ID)
	}
	if err := s.jobs.UpdateStatus(ctx, jobID, "running", 25); err != nil {
		return err
	}

	// Step 5: Pull and store precomputed ephys features
	records, err := s.upstream.GetEphysFeatures(ctx, ids)
	if err != nil {
		s.jobs.UpdateError(ctx, jobID, fmt.Sprintf("Failed to fetch ephys features: %v", err))
		return nil // Don't return error, status is updated to failed
	}
	for i := range records {
		if err := s.features.UpsertEphys(ctx, ephysFromRecord(&records[i])); err != nil {
			return fmt.Errorf("failed to upsert ephys features for %d: %w", records[i].SpecimenID, err)
		}
	}
	if err := s.jobs.UpdateStatus(ctx, jobID, "running", 50); err != nil {
		return err
	}

	// Step 6: Download per-specimen files and derive morphology features.
	// Specimens without a reconstruction are counted as synced and skipped.
	var (
		mu        sync.Mutex
		morphRows []models.MorphologyFeatures
		synced    int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(syncWorkers)
	for i := range specimens {
		sd := &specimens[i]
		g.Go(func() error {
			features, err := s.syncSpecimenFiles(gctx, sd)
			if err != nil {
				log.Warn().Err(err).Int64("specimen_id", sd.ID).Msg("Specimen files skipped")
			}

			// Count updates stay under the lock so they reach the job row
			// in order.
			mu.Lock()
			defer mu.Unlock()
			if features != nil {
				morphRows = append(morphRows, *features)
			}
			synced++
			return s.jobs.UpdateCounts(gctx, jobID, len(specimens), synced)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := s.jobs.UpdateStatus(ctx, jobID, "running", 75); err != nil {
		return err
	}

	// Step 7: Snapshot catalog and feature tables into the cache
	if err := s.writeSnapshots(ctx, job.Species, cells, morphRows); err != nil {
		s.jobs.UpdateError(ctx, jobID, fmt.Sprintf("Failed to write cache snapshots: %v", err))
		return err
	}
	if err := s.jobs.UpdateStatus(ctx, jobID, "running", 90); err != nil {
		return err
	}

	// Step 8: Mark complete
	if err := s.jobs.UpdateStatus(ctx, jobID, "completed", 100); err != nil {
		return err
	}

	log.Info().
		Str("job_id", jobID.String()).
		Str("species", job.Species).
		Int("cells", len(cells)).
		Int("reconstructions", len(morphRows)).
		Msg("Catalog sync completed")
	return nil
}

// syncSpecimenFiles caches one specimen's reconstruction files, derives
// morphology features from them, and mirrors the raw blobs when a store is
// configured. Returns nil features when the specimen has no reconstruction.
func (s *syncService) syncSpecimenFiles(ctx context.Context, sd *atlas.SpecimenDetail) (*models.MorphologyFeatures, error) {
	if sd.ReconType == nil {
		return nil, nil
	}

	recon, err := s.upstream.GetReconstruction(ctx, sd.ID)
	if errors.Is(err, atlas.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reconstruction record: %w", err)
	}
	if recon == nil {
		return nil, nil
	}

	swcID := recon.SWCFileID()
	if swcID == 0 {
		return nil, nil
	}
	swcPath, err := s.cache.EnsureWellKnownFile(ctx, s.upstream, sd.ID, swcID, cache.SWCFile)
	if err != nil {
		return nil, fmt.Errorf("failed to cache reconstruction: %w", err)
	}

	markerPath := ""
	var markers []morph.Marker
	if markerID := recon.MarkerFileID(); markerID != 0 {
		markerPath, err = s.cache.EnsureWellKnownFile(ctx, s.upstream, sd.ID, markerID, cache.MarkerFile)
		if err != nil {
			return nil, fmt.Errorf("failed to cache markers: %w", err)
		}
		markers, err = readMarkerFile(markerPath)
		if err != nil {
			return nil, err
		}
	}

	m, err := readSWCFile(swcPath)
	if err != nil {
		return nil, err
	}

	features := m.Features()
	features.SpecimenID = sd.ID
	features.CutDendriteCount = morph.CountByName(markers, morph.MarkerCutDendrite)
	features.NoReconstruction = morph.CountByName(markers, morph.MarkerNoReconstruction) > 0
	if err := s.features.UpsertMorphology(ctx, &features); err != nil {
		return nil, fmt.Errorf("failed to upsert morphology features for %d: %w", sd.ID, err)
	}

	if s.store != nil {
		if err := s.mirrorSpecimenFiles(ctx, sd, swcPath, markerPath); err != nil {
			log.Warn().Err(err).Int64("specimen_id", sd.ID).Msg("Blob mirror skipped")
		}
	}
	return &features, nil
}

// mirrorSpecimenFiles uploads the cached raw files to the blob store and
// records the object keys on the cell. The NWB container is fetched here
// rather than during the feature pass so syncs without a mirror never
// download it.
func (s *syncService) mirrorSpecimenFiles(ctx context.Context, sd *atlas.SpecimenDetail, swcPath, markerPath string) error {
	var nwbKey, swcKey, markerKey *string

	if swcPath != "" {
		key := storage.SWCObjectKey(sd.ID)
		if err := s.uploadFile(ctx, key, storage.ContentTypeSWC, swcPath); err != nil {
			return fmt.Errorf("failed to mirror reconstruction: %w", err)
		}
		swcKey = &key
	}
	if markerPath != "" {
		key := storage.MarkerObjectKey(sd.ID)
		if err := s.uploadFile(ctx, key, storage.ContentTypeMarkers, markerPath); err != nil {
			return fmt.Errorf("failed to mirror markers: %w", err)
		}
		markerKey = &key
	}
	if sd.EphysFileID != nil {
		nwbPath, err := s.cache.EnsureWellKnownFile(ctx, s.upstream, sd.ID, *sd.EphysFileID, cache.NWBFile)
		if err != nil {
			return fmt.Errorf("failed to cache ephys container: %w", err)
		}
		key := storage.NWBObjectKey(sd.ID)
		if err := s.uploadFile(ctx, key, storage.ContentTypeNWB, nwbPath); err != nil {
			return fmt.Errorf("failed to mirror ephys container: %w", err)
		}
		nwbKey = &key
	}

	if nwbKey == nil && swcKey == nil && markerKey == nil {
		return nil
	}
	return s.cells.UpdateFileKeys(ctx, sd.ID, nwbKey, swcKey, markerKey)
}

func (s *syncService) uploadFile(ctx context.Context, key, contentType, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.store.Upload(ctx, key, contentType, f)
}

// writeSnapshots refreshes the catalog and feature files the CLI reads
func (s *syncService) writeSnapshots(ctx context.Context, species string, cells []models.Cell, morphRows []models.MorphologyFeatures) error {
	if err := s.cache.WriteCells(cells); err != nil {
		return err
	}
	rows, err := s.features.ListRows(ctx, models.CellFilter{Species: species})
	if err != nil {
		return err
	}
	if err := s.cache.WriteEphysFeaturesCSV(rows); err != nil {
		return err
	}
	return s.cache.WriteMorphologyFeaturesCSV(morphRows)
}

func cellFromSpecimen(sd *atlas.SpecimenDetail) *models.Cell {
	cell := &models.Cell{
		ID:             sd.ID,
		Name:           sd.Name,
		Species:        sd.Species,
		Structure:      sd.Structure,
		StructureLayer: sd.Layer,
		Hemisphere:     sd.Hemisphere,
		DendriteType:   models.DendriteNotApplicable,
		TransgenicLine: sd.LineName,
		ReporterStatus: sd.ReporterStatus,
		HasMorphology:  sd.ReconType != nil,
		HasEphys:       sd.EphysFileID != nil,
	}
	if sd.DendriteType != nil && *sd.DendriteType != "" {
		cell.DendriteType = *sd.DendriteType
	}
	if sd.Apical != nil {
		cell.ApicalStatus = *sd.Apical
	}
	return cell
}

func ephysFromRecord(rec *atlas.EphysFeatureRecord) *models.EphysFeatures {
	return &models.EphysFeatures{
		ID:                                 rec.ID,
		SpecimenID:                         rec.SpecimenID,
		Vrest:                              rec.Vrest,
		Tau:                                rec.Tau,
		Ri:                                 rec.Ri,
		Sag:                                rec.Sag,
		ThresholdILongSquare:               rec.ThresholdILongSquare,
		ThresholdVLongSquare:               rec.ThresholdVLongSquare,
		PeakVLongSquare:                    rec.PeakVLongSquare,
		FastTroughVLongSquare:              rec.FastTroughVLongSquare,
		TroughVLongSquare:                  rec.TroughVLongSquare,
		UpstrokeDownstrokeRatioLongSquare:  rec.UpstrokeDownstrokeRatioLongSquare,
		UpstrokeDownstrokeRatioShortSquare: rec.UpstrokeDownstrokeRatioShortSquare,
		Adaptation:                         rec.Adaptation,
		AvgISI:                             rec.AvgISI,
		FICurveSlope:                       rec.FICurveSlope,
		Latency:                            rec.Latency,
	}
}

func readSWCFile(path string) (*morph.Morphology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open reconstruction: %w", err)
	}
	defer f.Close()
	return morph.ParseSWC(f)
}

func readMarkerFile(path string) ([]morph.Marker, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open markers: %w", err)
	}
	defer f.Close()
	return morph.ParseMarkers(f)
}
