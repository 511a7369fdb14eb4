package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/dendralab/dendra/internal/api/handlers"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/processing"
	"github.com/dendralab/dendra/internal/repository"
)

// RegisterRoutes sets up all API routes
func RegisterRoutes(router *chi.Mux, api huma.API, cells repository.CellRepository, features repository.FeatureRepository, jobs repository.SyncJobRepository, upstream handlers.Atlas, fileCache *cache.Cache, syncSvc processing.SyncService) {
	// Initialize handlers
	cellsHandler := handlers.NewCellsHandler(cells, features)
	featuresHandler := handlers.NewFeaturesHandler(features)
	sweepsHandler := handlers.NewSweepsHandler(upstream, fileCache)
	morphologyHandler := handlers.NewMorphologyHandler(features, upstream, fileCache)
	syncHandler := handlers.NewSyncHandler(jobs, syncSvc)

	// Register cell catalog routes
	huma.Register(api, huma.Operation{
		OperationID: "listCells",
		Method:      http.MethodGet,
		Path:        "/api/cells",
		Summary:     "List catalog cells",
		Description: "Returns a page of catalog cells matching the filter",
		Tags:        []string{"Cells"},
	}, cellsHandler.ListCells)

	huma.Register(api, huma.Operation{
		OperationID: "getCell",
		Method:      http.MethodGet,
		Path:        "/api/cells/{id}",
		Summary:     "Get one cell",
		Description: "Returns a catalog record with any stored feature rows",
		Tags:        []string{"Cells"},
	}, cellsHandler.GetCell)

	// Register feature table routes
	huma.Register(api, huma.Operation{
		OperationID: "listFeatures",
		Method:      http.MethodGet,
		Path:        "/api/features",
		Summary:     "List feature rows",
		Description: "Returns the joined ephys feature table with paging",
		Tags:        []string{"Features"},
	}, featuresHandler.ListFeatures)

	huma.Register(api, huma.Operation{
		OperationID: "getFeatureSummary",
		Method:      http.MethodGet,
		Path:        "/api/features/summary",
		Summary:     "Summarize a feature",
		Description: "Returns per-dendrite-type statistics for one feature column",
		Tags:        []string{"Features"},
	}, featuresHandler.GetFeatureSummary)

	huma.Register(api, huma.Operation{
		OperationID: "plotFeatureScatter",
		Method:      http.MethodGet,
		Path:        "/api/features/scatter",
		Summary:     "Render a feature scatterplot",
		Description: "Renders two feature columns against each other as a PNG, grouped by dendrite type",
		Tags:        []string{"Features", "Plots"},
	}, featuresHandler.FeatureScatter)

	// Register sweep routes
	huma.Register(api, huma.Operation{
		OperationID: "listSweeps",
		Method:      http.MethodGet,
		Path:        "/api/cells/{id}/sweeps",
		Summary:     "List sweeps",
		Description: "Returns the sweep index recorded for a specimen",
		Tags:        []string{"Sweeps"},
	}, sweepsHandler.ListSweeps)

	huma.Register(api, huma.Operation{
		OperationID: "getSweepTrace",
		Method:      http.MethodGet,
		Path:        "/api/cells/{id}/sweeps/{number}",
		Summary:     "Get a sweep trace",
		Description: "Returns one sweep's samples in millivolts and picoamps with detected spike times",
		Tags:        []string{"Sweeps"},
	}, sweepsHandler.GetSweepTrace)

	huma.Register(api, huma.Operation{
		OperationID: "plotSweep",
		Method:      http.MethodGet,
		Path:        "/api/cells/{id}/sweeps/{number}/plot",
		Summary:     "Render a sweep",
		Description: "Renders one sweep's response and stimulus as a PNG",
		Tags:        []string{"Sweeps", "Plots"},
	}, sweepsHandler.SweepPlot)

	// Register morphology routes
	huma.Register(api, huma.Operation{
		OperationID: "getMorphology",
		Method:      http.MethodGet,
		Path:        "/api/cells/{id}/morphology",
		Summary:     "Get morphology metrics",
		Description: "Returns reconstruction metrics with node counts per compartment",
		Tags:        []string{"Morphology"},
	}, morphologyHandler.GetMorphology)

	huma.Register(api, huma.Operation{
		OperationID: "plotMorphology",
		Method:      http.MethodGet,
		Path:        "/api/cells/{id}/morphology/plot",
		Summary:     "Render a reconstruction",
		Description: "Renders a 2D projection of the reconstruction as a PNG",
		Tags:        []string{"Morphology", "Plots"},
	}, morphologyHandler.MorphologyPlot)

	// Register sync routes
	huma.Register(api, huma.Operation{
		OperationID: "startSync",
		Method:      http.MethodPost,
		Path:        "/api/sync",
		Summary:     "Start a catalog sync",
		Description: "Creates a sync job for one species and runs it in the background",
		Tags:        []string{"Sync"},
	}, syncHandler.StartSync)

	huma.Register(api, huma.Operation{
		OperationID: "getSyncStatus",
		Method:      http.MethodGet,
		Path:        "/api/sync/{id}",
		Summary:     "Get sync status",
		Description: "Returns the current status and progress of a sync job",
		Tags:        []string{"Sync"},
	}, syncHandler.GetSyncStatus)
}
