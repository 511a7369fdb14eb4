package handlers

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/pkg/models"
)

const handlerTestSWC = `# test reconstruction
1 1 0 0 0 5 -1
2 3 20 0 0 1 1
3 3 40 0 0 1 2
4 2 -10 0 0 1 1
`

const handlerTestMarkers = "40,0,0,2,1,10\n"

// MockCellRepository implements repository.CellRepository for testing
type MockCellRepository struct {
	mock.Mock
}

func (m *MockCellRepository) Upsert(ctx context.Context, cell *models.Cell) error {
	args := m.Called(ctx, cell)
	return args.Error(0)
}

func (m *MockCellRepository) GetByID(ctx context.Context, id int64) (*models.Cell, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Cell), args.Error(1)
}

func (m *MockCellRepository) List(ctx context.Context, filter models.CellFilter) ([]*models.Cell, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Cell), args.Error(1)
}

func (m *MockCellRepository) Count(ctx context.Context, filter models.CellFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockCellRepository) UpdateFileKeys(ctx context.Context, id int64, nwbKey, swcKey, markerKey *string) error {
	args := m.Called(ctx, id, nwbKey, swcKey, markerKey)
	return args.Error(0)
}

// MockFeatureRepository implements repository.FeatureRepository for testing
type MockFeatureRepository struct {
	mock.Mock
}

func (m *MockFeatureRepository) UpsertEphys(ctx context.Context, features *models.EphysFeatures) error {
	args := m.Called(ctx, features)
	return args.Error(0)
}

func (m *MockFeatureRepository) UpsertMorphology(ctx context.Context, features *models.MorphologyFeatures) error {
	args := m.Called(ctx, features)
	return args.Error(0)
}

func (m *MockFeatureRepository) GetEphys(ctx context.Context, specimenID int64) (*models.EphysFeatures, error) {
	args := m.Called(ctx, specimenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.EphysFeatures), args.Error(1)
}

func (m *MockFeatureRepository) GetMorphology(ctx context.Context, specimenID int64) (*models.MorphologyFeatures, error) {
	args := m.Called(ctx, specimenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MorphologyFeatures), args.Error(1)
}

func (m *MockFeatureRepository) ListRows(ctx context.Context, filter models.CellFilter) ([]models.FeatureRow, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FeatureRow), args.Error(1)
}

// MockSyncJobRepository implements repository.SyncJobRepository for testing
type MockSyncJobRepository struct {
	mock.Mock
}

func (m *MockSyncJobRepository) Create(ctx context.Context, job *models.SyncJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockSyncJobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.SyncJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) GetActive(ctx context.Context, species string) (*models.SyncJob, error) {
	args := m.Called(ctx, species)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SyncJob), args.Error(1)
}

func (m *MockSyncJobRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string, progress int) error {
	args := m.Called(ctx, id, status, progress)
	return args.Error(0)
}

func (m *MockSyncJobRepository) UpdateCounts(ctx context.Context, id uuid.UUID, cellsTotal, cellsSynced int) error {
	args := m.Called(ctx, id, cellsTotal, cellsSynced)
	return args.Error(0)
}

func (m *MockSyncJobRepository) UpdateError(ctx context.Context, id uuid.UUID, errorMsg string) error {
	args := m.Called(ctx, id, errorMsg)
	return args.Error(0)
}

// MockSyncService implements processing.SyncService for testing
type MockSyncService struct {
	mock.Mock
}

func (m *MockSyncService) ProcessSync(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

// MockAtlas implements the Atlas interface for testing. DownloadFile writes
// the configured byte payload to the supplied writer.
type MockAtlas struct {
	mock.Mock
}

func (m *MockAtlas) ListSweeps(ctx context.Context, specimenID int64) ([]atlas.SweepRecord, error) {
	args := m.Called(ctx, specimenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]atlas.SweepRecord), args.Error(1)
}

func (m *MockAtlas) GetSweepTrace(ctx context.Context, specimenID int64, sweepNumber int) (*atlas.SweepTraceRecord, error) {
	args := m.Called(ctx, specimenID, sweepNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*atlas.SweepTraceRecord), args.Error(1)
}

func (m *MockAtlas) GetReconstruction(ctx context.Context, specimenID int64) (*atlas.ReconstructionRecord, error) {
	args := m.Called(ctx, specimenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*atlas.ReconstructionRecord), args.Error(1)
}

func (m *MockAtlas) DownloadFile(ctx context.Context, fileID int64, w io.Writer) (int64, error) {
	args := m.Called(ctx, fileID, w)
	if data, ok := args.Get(0).([]byte); ok {
		n, err := w.Write(data)
		if err != nil {
			return int64(n), err
		}
		return int64(n), args.Error(1)
	}
	return 0, args.Error(1)
}

func newTestCache(t *testing.T) *cache.Cache {
	t.Helper()
	c, err := cache.Open(t.TempDir())
	require.NoError(t, err)
	return c
}

func fptr(v float64) *float64 { return &v }

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var statusErr huma.StatusError
	require.ErrorAs(t, err, &statusErr)
	return statusErr.GetStatus()
}

func traceRecord() *atlas.SweepTraceRecord {
	n := 10
	response := make([]float64, n)
	stimulus := make([]float64, n)
	for i := range response {
		response[i] = -0.070
		stimulus[i] = 1.5e-10
	}
	return &atlas.SweepTraceRecord{
		SamplingRate: 1000,
		IndexRange:   [2]int{2, 8},
		Response:     response,
		Stimulus:     stimulus,
	}
}

func reconRecord() *atlas.ReconstructionRecord {
	return &atlas.ReconstructionRecord{
		ID:         501,
		SpecimenID: 464212183,
		WellKnownFiles: []atlas.WellKnownFile{
			{ID: 11, FileType: &atlas.WellKnownFileType{ID: 303941301, Name: atlas.FileType3DReconstruction}},
			{ID: 12, FileType: &atlas.WellKnownFileType{ID: 486753749, Name: atlas.FileType3DMarker}},
		},
	}
}

func featureRows() []models.FeatureRow {
	return []models.FeatureRow{
		{SpecimenID: 1, Species: "Homo Sapiens", DendriteType: "spiny", Features: models.EphysFeatures{
			SpecimenID:                        1,
			Vrest:                             fptr(-70),
			UpstrokeDownstrokeRatioLongSquare: fptr(3.2),
			FastTroughVLongSquare:             fptr(-52),
		}},
		{SpecimenID: 2, Species: "Homo Sapiens", DendriteType: "spiny", Features: models.EphysFeatures{
			SpecimenID:                        2,
			Vrest:                             fptr(-72),
			UpstrokeDownstrokeRatioLongSquare: fptr(3.6),
			FastTroughVLongSquare:             fptr(-55),
		}},
		{SpecimenID: 3, Species: "Homo Sapiens", DendriteType: "aspiny", Features: models.EphysFeatures{
			SpecimenID:                        3,
			Vrest:                             fptr(-65),
			UpstrokeDownstrokeRatioLongSquare: fptr(1.4),
		}},
	}
}

func TestListCells(t *testing.T) {
	tests := []struct {
		name      string
		input     models.ListCellsRequest
		mockSetup func(*MockCellRepository)
		wantTotal int
		wantCells int
		wantError bool
	}{
		{
			name:  "filtered list",
			input: models.ListCellsRequest{Species: "Homo Sapiens", Limit: 2},
			mockSetup: func(repo *MockCellRepository) {
				cells := []*models.Cell{
					{ID: 1, Name: "H16.03.001", Species: "Homo Sapiens", DendriteType: "spiny", HasMorphology: true},
					{ID: 2, Name: "H16.03.002", Species: "Homo Sapiens", DendriteType: "aspiny"},
				}
				repo.On("List", mock.Anything, mock.AnythingOfType("models.CellFilter")).Return(cells, nil)
				repo.On("Count", mock.Anything, mock.AnythingOfType("models.CellFilter")).Return(5, nil)
			},
			wantTotal: 5,
			wantCells: 2,
		},
		{
			name:  "repository error",
			input: models.ListCellsRequest{},
			mockSetup: func(repo *MockCellRepository) {
				repo.On("List", mock.Anything, mock.Anything).Return(nil, assert.AnError)
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockCells := &MockCellRepository{}
			mockFeatures := &MockFeatureRepository{}
			tt.mockSetup(mockCells)

			handler := NewCellsHandler(mockCells, mockFeatures)
			resp, err := handler.ListCells(context.Background(), &tt.input)

			if tt.wantError {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantTotal, resp.Body.Total)
				assert.Len(t, resp.Body.Cells, tt.wantCells)
				assert.Equal(t, "spiny", resp.Body.Cells[0].DendriteType)
				assert.True(t, resp.Body.Cells[0].HasMorphology)
			}
			mockCells.AssertExpectations(t)
		})
	}
}

func TestGetCell(t *testing.T) {
	mockCells := &MockCellRepository{}
	mockFeatures := &MockFeatureRepository{}

	cell := &models.Cell{ID: 464212183, Name: "H16.03.003", Species: "Homo Sapiens", DendriteType: "spiny"}
	ephys := &models.EphysFeatures{SpecimenID: 464212183, Vrest: fptr(-71.5)}
	mockCells.On("GetByID", mock.Anything, int64(464212183)).Return(cell, nil)
	mockFeatures.On("GetEphys", mock.Anything, int64(464212183)).Return(ephys, nil)
	mockFeatures.On("GetMorphology", mock.Anything, int64(464212183)).Return(nil, sql.ErrNoRows)

	handler := NewCellsHandler(mockCells, mockFeatures)
	resp, err := handler.GetCell(context.Background(), &models.GetCellRequest{ID: 464212183})

	require.NoError(t, err)
	assert.Equal(t, int64(464212183), resp.Body.Cell.ID)
	require.NotNil(t, resp.Body.Ephys)
	assert.InDelta(t, -71.5, *resp.Body.Ephys.Vrest, 1e-9)
	assert.Nil(t, resp.Body.Morphology)
	mockCells.AssertExpectations(t)
	mockFeatures.AssertExpectations(t)
}

func TestGetCellNotFound(t *testing.T) {
	mockCells := &MockCellRepository{}
	mockCells.On("GetByID", mock.Anything, int64(999)).Return(nil, sql.ErrNoRows)

	handler := NewCellsHandler(mockCells, &MockFeatureRepository{})
	_, err := handler.GetCell(context.Background(), &models.GetCellRequest{ID: 999})

	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestListFeaturesPaging(t *testing.T) {
	rows := featureRows()
	mockFeatures := &MockFeatureRepository{}
	mockFeatures.On("ListRows", mock.Anything, mock.Anything).Return(rows, nil)

	handler := NewFeaturesHandler(mockFeatures)

	resp, err := handler.ListFeatures(context.Background(), &models.ListFeaturesRequest{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Body.Total)
	require.Len(t, resp.Body.Rows, 1)
	assert.Equal(t, int64(3), resp.Body.Rows[0].SpecimenID)

	resp, err = handler.ListFeatures(context.Background(), &models.ListFeaturesRequest{Limit: 2, Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, resp.Body.Total)
	assert.Empty(t, resp.Body.Rows)
}

func TestGetFeatureSummary(t *testing.T) {
	mockFeatures := &MockFeatureRepository{}
	mockFeatures.On("ListRows", mock.Anything, mock.Anything).Return(featureRows(), nil)

	handler := NewFeaturesHandler(mockFeatures)
	resp, err := handler.GetFeatureSummary(context.Background(), &models.FeatureSummaryRequest{Feature: "vrest"})

	require.NoError(t, err)
	assert.Equal(t, "vrest", resp.Body.Feature)
	require.Len(t, resp.Body.Groups, 2)
	assert.Equal(t, "spiny", resp.Body.Groups[0].DendriteType)
	assert.Equal(t, 2, resp.Body.Groups[0].N)
	assert.InDelta(t, -71.0, resp.Body.Groups[0].Mean, 1e-9)
	assert.InDelta(t, 1.0, resp.Body.Groups[0].SEM, 1e-9)
	assert.Equal(t, "aspiny", resp.Body.Groups[1].DendriteType)
}

func TestGetFeatureSummaryUnknownColumn(t *testing.T) {
	handler := NewFeaturesHandler(&MockFeatureRepository{})
	_, err := handler.GetFeatureSummary(context.Background(), &models.FeatureSummaryRequest{Feature: "spikiness"})

	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestFeatureScatter(t *testing.T) {
	mockFeatures := &MockFeatureRepository{}
	mockFeatures.On("ListRows", mock.Anything, mock.Anything).Return(featureRows(), nil)

	handler := NewFeaturesHandler(mockFeatures)
	resp, err := handler.FeatureScatter(context.Background(), &models.FeatureScatterRequest{
		X: "fast_trough_v_long_square",
		Y: "upstroke_downstroke_ratio_long_square",
	})

	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.NotEmpty(t, resp.Body)
}

func TestFeatureScatterNoRows(t *testing.T) {
	mockFeatures := &MockFeatureRepository{}
	mockFeatures.On("ListRows", mock.Anything, mock.Anything).Return([]models.FeatureRow{}, nil)

	handler := NewFeaturesHandler(mockFeatures)
	_, err := handler.FeatureScatter(context.Background(), &models.FeatureScatterRequest{
		X: "vrest",
		Y: "tau",
	})

	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestListSweeps(t *testing.T) {
	records := []atlas.SweepRecord{
		{SpecimenID: 464212183, SweepNumber: 30, StimulusName: "Long Square", SamplingRate: 200000, WorkflowState: "manual_passed"},
		{SpecimenID: 464212183, SweepNumber: 31, StimulusName: "Short Square", SamplingRate: 200000, WorkflowState: "manual_failed"},
		{SpecimenID: 464212183, SweepNumber: 32, StimulusName: "Ramp", SamplingRate: 200000, WorkflowState: "auto_passed"},
	}
	mockAtlas := &MockAtlas{}
	mockAtlas.On("ListSweeps", mock.Anything, int64(464212183)).Return(records, nil)

	handler := NewSweepsHandler(mockAtlas, newTestCache(t))

	resp, err := handler.ListSweeps(context.Background(), &models.ListSweepsRequest{ID: 464212183})
	require.NoError(t, err)
	require.Len(t, resp.Body.Sweeps, 3)
	assert.True(t, resp.Body.Sweeps[0].Passed)
	assert.False(t, resp.Body.Sweeps[1].Passed)

	resp, err = handler.ListSweeps(context.Background(), &models.ListSweepsRequest{ID: 464212183, Stimulus: "square"})
	require.NoError(t, err)
	require.Len(t, resp.Body.Sweeps, 2)
	assert.Equal(t, "Long Square", resp.Body.Sweeps[0].StimulusName)
}

func TestGetSweepTrace(t *testing.T) {
	mockAtlas := &MockAtlas{}
	mockAtlas.On("GetSweepTrace", mock.Anything, int64(464212183), 35).Return(traceRecord(), nil).Once()

	handler := NewSweepsHandler(mockAtlas, newTestCache(t))
	req := &models.GetSweepTraceRequest{ID: 464212183, Number: 35}

	resp, err := handler.GetSweepTrace(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(464212183), resp.Body.SpecimenID)
	assert.Equal(t, 35, resp.Body.SweepNumber)
	assert.InDelta(t, 1000.0, resp.Body.SamplingRate, 1e-9)
	require.Len(t, resp.Body.Points, 7)
	assert.InDelta(t, -70.0, resp.Body.Points[0].VoltageMV, 1e-9)
	assert.InDelta(t, 150.0, resp.Body.Points[0].CurrentPA, 1e-9)
	assert.Empty(t, resp.Body.SpikeTimesS)

	// Second request reads the cached trace without hitting upstream.
	_, err = handler.GetSweepTrace(context.Background(), req)
	require.NoError(t, err)
	mockAtlas.AssertExpectations(t)
}

func TestGetSweepTraceNotFound(t *testing.T) {
	mockAtlas := &MockAtlas{}
	mockAtlas.On("GetSweepTrace", mock.Anything, int64(464212183), 99).Return(nil, atlas.ErrNotFound)

	handler := NewSweepsHandler(mockAtlas, newTestCache(t))
	_, err := handler.GetSweepTrace(context.Background(), &models.GetSweepTraceRequest{ID: 464212183, Number: 99})

	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestSweepPlot(t *testing.T) {
	mockAtlas := &MockAtlas{}
	mockAtlas.On("GetSweepTrace", mock.Anything, int64(464212183), 35).Return(traceRecord(), nil)

	handler := NewSweepsHandler(mockAtlas, newTestCache(t))
	resp, err := handler.SweepPlot(context.Background(), &models.SweepPlotRequest{ID: 464212183, Number: 35})

	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.NotEmpty(t, resp.Body)
}

func TestSweepPlotInvalidWindow(t *testing.T) {
	handler := NewSweepsHandler(&MockAtlas{}, newTestCache(t))
	_, err := handler.SweepPlot(context.Background(), &models.SweepPlotRequest{ID: 1, Number: 1, StartS: 0.5, EndS: 0.2})

	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}

func TestGetMorphology(t *testing.T) {
	stored := &models.MorphologyFeatures{SpecimenID: 464212183, NumberNodes: 4, NumberStems: 2}
	mockFeatures := &MockFeatureRepository{}
	mockFeatures.On("GetMorphology", mock.Anything, int64(464212183)).Return(stored, nil)

	mockAtlas := &MockAtlas{}
	mockAtlas.On("GetReconstruction", mock.Anything, int64(464212183)).Return(reconRecord(), nil)
	mockAtlas.On("DownloadFile", mock.Anything, int64(11), mock.Anything).Return([]byte(handlerTestSWC), nil)
	mockAtlas.On("DownloadFile", mock.Anything, int64(12), mock.Anything).Return([]byte(handlerTestMarkers), nil)

	handler := NewMorphologyHandler(mockFeatures, mockAtlas, newTestCache(t))
	resp, err := handler.GetMorphology(context.Background(), &models.GetMorphologyRequest{ID: 464212183})

	require.NoError(t, err)
	assert.Equal(t, 4, resp.Body.Features.NumberNodes)
	assert.Equal(t, map[string]int{"soma": 1, "axon": 1, "basal dendrite": 2}, resp.Body.CompartmentCounts)
}

func TestGetMorphologyNotFound(t *testing.T) {
	mockFeatures := &MockFeatureRepository{}
	mockFeatures.On("GetMorphology", mock.Anything, int64(464212111)).Return(nil, sql.ErrNoRows)

	handler := NewMorphologyHandler(mockFeatures, &MockAtlas{}, newTestCache(t))
	_, err := handler.GetMorphology(context.Background(), &models.GetMorphologyRequest{ID: 464212111})

	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestMorphologyPlot(t *testing.T) {
	mockAtlas := &MockAtlas{}
	mockAtlas.On("GetReconstruction", mock.Anything, int64(464212183)).Return(reconRecord(), nil)
	mockAtlas.On("DownloadFile", mock.Anything, int64(11), mock.Anything).Return([]byte(handlerTestSWC), nil)
	mockAtlas.On("DownloadFile", mock.Anything, int64(12), mock.Anything).Return([]byte(handlerTestMarkers), nil)

	handler := NewMorphologyHandler(&MockFeatureRepository{}, mockAtlas, newTestCache(t))
	resp, err := handler.MorphologyPlot(context.Background(), &models.MorphologyPlotRequest{ID: 464212183, Plane: "xy"})

	require.NoError(t, err)
	assert.Equal(t, "image/png", resp.ContentType)
	assert.NotEmpty(t, resp.Body)
	mockAtlas.AssertExpectations(t)
}

func TestMorphologyPlotNoReconstruction(t *testing.T) {
	mockAtlas := &MockAtlas{}
	mockAtlas.On("GetReconstruction", mock.Anything, int64(464212111)).Return(nil, nil)

	handler := NewMorphologyHandler(&MockFeatureRepository{}, mockAtlas, newTestCache(t))
	_, err := handler.MorphologyPlot(context.Background(), &models.MorphologyPlotRequest{ID: 464212111, Plane: "xy"})

	require.Error(t, err)
	assert.Equal(t, 404, statusOf(t, err))
}

func TestStartSync(t *testing.T) {
	mockJobs := &MockSyncJobRepository{}
	mockSvc := &MockSyncService{}
	mockJobs.On("GetActive", mock.Anything, "Homo Sapiens").Return(nil, sql.ErrNoRows)
	mockJobs.On("Create", mock.Anything, mock.AnythingOfType("*models.SyncJob")).Return(nil)
	mockSvc.On("ProcessSync", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil).Maybe()

	handler := NewSyncHandler(mockJobs, mockSvc)
	req := &models.StartSyncRequest{}
	req.Body.Species = "Homo Sapiens"
	req.Body.Limit = 20

	resp, err := handler.StartSync(context.Background(), req)

	require.NoError(t, err)
	_, parseErr := uuid.Parse(resp.Body.ID)
	assert.NoError(t, parseErr)
	assert.Equal(t, "Sync started successfully", resp.Body.Message)
	mockJobs.AssertExpectations(t)
}

func TestStartSyncAlreadyRunning(t *testing.T) {
	running := &models.SyncJob{ID: uuid.New().String(), Species: "Homo Sapiens", Status: "running", Progress: 50}
	mockJobs := &MockSyncJobRepository{}
	mockJobs.On("GetActive", mock.Anything, "Homo Sapiens").Return(running, nil)

	handler := NewSyncHandler(mockJobs, &MockSyncService{})
	req := &models.StartSyncRequest{}
	req.Body.Species = "Homo Sapiens"

	_, err := handler.StartSync(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, 409, statusOf(t, err))
	assert.Contains(t, err.Error(), running.ID)
}

func TestGetSyncStatus(t *testing.T) {
	jobID := uuid.New()
	job := &models.SyncJob{
		ID:          jobID.String(),
		Species:     "Homo Sapiens",
		Status:      "running",
		Progress:    60,
		CellsTotal:  20,
		CellsSynced: 12,
	}
	mockJobs := &MockSyncJobRepository{}
	mockJobs.On("GetByID", mock.Anything, jobID).Return(job, nil)

	handler := NewSyncHandler(mockJobs, &MockSyncService{})
	resp, err := handler.GetSyncStatus(context.Background(), &models.GetSyncStatusRequest{ID: jobID.String()})

	require.NoError(t, err)
	assert.Equal(t, "running", resp.Body.Status)
	assert.Equal(t, 60, resp.Body.Progress)
	assert.Equal(t, 20, resp.Body.CellsTotal)
	assert.Equal(t, 12, resp.Body.CellsSynced)
	assert.Equal(t, "Downloading reconstruction files...", resp.Body.Message)
	assert.Nil(t, resp.Body.Error)
}

func TestGetSyncStatusFailed(t *testing.T) {
	jobID := uuid.New()
	errMsg := "Failed to query cell catalog: connection refused"
	job := &models.SyncJob{ID: jobID.String(), Species: "Mus musculus", Status: "failed", Progress: 10, ErrorMsg: &errMsg}
	mockJobs := &MockSyncJobRepository{}
	mockJobs.On("GetByID", mock.Anything, jobID).Return(job, nil)

	handler := NewSyncHandler(mockJobs, &MockSyncService{})
	resp, err := handler.GetSyncStatus(context.Background(), &models.GetSyncStatusRequest{ID: jobID.String()})

	require.NoError(t, err)
	assert.Equal(t, "failed", resp.Body.Status)
	require.NotNil(t, resp.Body.Error)
	assert.Contains(t, *resp.Body.Error, "connection refused")
	assert.True(t, strings.HasPrefix(resp.Body.Message, "Sync failed"))
}

func TestGetSyncStatusInvalidID(t *testing.T) {
	handler := NewSyncHandler(&MockSyncJobRepository{}, &MockSyncService{})
	_, err := handler.GetSyncStatus(context.Background(), &models.GetSyncStatusRequest{ID: "not-a-uuid"})

	require.Error(t, err)
	assert.Equal(t, 400, statusOf(t, err))
}
