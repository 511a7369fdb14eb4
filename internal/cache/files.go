package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/exporter"
	"github.com/dendralab/dendra/pkg/models"
)

// Logical manifest keys for the catalog-level snapshots.
const (
	KeyCells              = "cells"
	KeyEphysFeatures      = "ephys_features"
	KeyMorphologyFeatures = "morphology_features"
)

// Canonical per-specimen file names.
const (
	SWCFile    = "reconstruction.swc"
	MarkerFile = "reconstruction_marker.csv"
	NWBFile    = "ephys.nwb"

	cellsFile     = "cells.json"
	ephysCSV      = "ephys_features.csv"
	morphologyCSV = "morphology_features.csv"
	specimenDir   = "specimens"
)

// Downloader streams well-known files from upstream
type Downloader interface {
	DownloadFile(ctx context.Context, fileID int64, w io.Writer) (int64, error)
}

// TraceFetcher retrieves sweep traces from upstream
type TraceFetcher interface {
	GetSweepTrace(ctx context.Context, specimenID int64, sweepNumber int) (*atlas.SweepTraceRecord, error)
}

func specimenKey(specimenID int64, name string) string {
	return fmt.Sprintf("specimen/%d/%s", specimenID, name)
}

func specimenRel(specimenID int64, name string) string {
	return path.Join(specimenDir, strconv.FormatInt(specimenID, 10), name)
}

// WriteCells snapshots the cell catalog as cells.json
func (c *Cache) WriteCells(cells []models.Cell) error {
	_, err := c.Put(KeyCells, cellsFile, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(cells)
	})
	return err
}

// ReadCells loads the cached cell catalog
func (c *Cache) ReadCells() ([]models.Cell, error) {
	full, ok := c.Path(KeyCells)
	if !ok {
		return nil, fmt.Errorf("cell catalog not cached")
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("failed to read cell catalog: %w", err)
	}
	var cells []models.Cell
	if err := json.Unmarshal(raw, &cells); err != nil {
		return nil, fmt.Errorf("failed to parse cell catalog: %w", err)
	}
	return cells, nil
}

// WriteEphysFeaturesCSV snapshots the ephys feature table next to the
// manifest
func (c *Cache) WriteEphysFeaturesCSV(rows []models.FeatureRow) error {
	w := exporter.NewCSVWriter(c.dir)
	if err := w.WriteSimpleCSV(ephysCSV, exporter.FeatureHeaders(), exporter.FeatureRecords(rows)); err != nil {
		return err
	}
	return c.record(KeyEphysFeatures, ephysCSV)
}

// WriteMorphologyFeaturesCSV snapshots the morphology feature table next to
// the manifest
func (c *Cache) WriteMorphologyFeaturesCSV(rows []models.MorphologyFeatures) error {
	w := exporter.NewCSVWriter(c.dir)
	if err := w.WriteSimpleCSV(morphologyCSV, exporter.MorphologyHeaders(), exporter.MorphologyRecords(rows)); err != nil {
		return err
	}
	return c.record(KeyMorphologyFeatures, morphologyCSV)
}

// EnsureWellKnownFile returns the local path of a downloaded well-known
// file, fetching it on first use. name should be one of the canonical
// per-specimen file names.
func (c *Cache) EnsureWellKnownFile(ctx context.Context, dl Downloader, specimenID, fileID int64, name string) (string, error) {
	key := specimenKey(specimenID, name)
	if full, ok := c.Path(key); ok {
		return full, nil
	}

	log.Info().
		Int64("specimen_id", specimenID).
		Int64("file_id", fileID).
		Str("file", name).
		Msg("Downloading well-known file")

	return c.Put(key, specimenRel(specimenID, name), func(w io.Writer) error {
		_, err := dl.DownloadFile(ctx, fileID, w)
		return err
	})
}

// SweepTrace returns a sweep trace, fetching and storing it on first use
func (c *Cache) SweepTrace(ctx context.Context, tf TraceFetcher, specimenID int64, sweepNumber int) (*atlas.SweepTraceRecord, error) {
	name := fmt.Sprintf("sweep_%d.json", sweepNumber)
	key := specimenKey(specimenID, name)

	if full, ok := c.Path(key); ok {
		raw, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached trace: %w", err)
		}
		var rec atlas.SweepTraceRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse cached trace: %w", err)
		}
		return &rec, nil
	}

	rec, err := tf.GetSweepTrace(ctx, specimenID, sweepNumber)
	if err != nil {
		return nil, err
	}
	if _, err := c.Put(key, specimenRel(specimenID, name), func(w io.Writer) error {
		return json.NewEncoder(w).Encode(rec)
	}); err != nil {
		return nil, err
	}
	return rec, nil
}
