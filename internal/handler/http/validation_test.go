package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/jwt"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/sse"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/storage"
	"github.com/cmlabs-hris/schedule-checker/internal/repository/excel"
	validationService "github.com/cmlabs-hris/schedule-checker/internal/service/validation"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Meta    *struct {
		Page       int   `json:"page"`
		Limit      int   `json:"limit"`
		TotalItems int64 `json:"total_items"`
		TotalPages int   `json:"total_pages"`
	} `json:"meta"`
	Error *struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	} `json:"error"`
}

func testLayout() validation.Layout {
	return validation.Layout{
		DayRow:         3,
		DateRow:        4,
		FirstDayColumn: 2,
		DayCount:       7,
		NameColumn:     1,
		SummaryCell:    "B15",
		Discovery: validation.Discovery{
			Mode:     validation.DiscoveryScan,
			StartRow: 6,
			Count:    7,
		},
	}
}

// scheduleWorkbook builds an .xlsx with one week in which Alice closes on
// Monday and opens on Tuesday.
func scheduleWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", "Week 1"))

	days := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}
	for i, day := range days {
		cell, _ := excelize.CoordinatesToCellName(2+i, 3)
		require.NoError(t, f.SetCellValue("Week 1", cell, day))
		cell, _ = excelize.CoordinatesToCellName(2+i, 4)
		require.NoError(t, f.SetCellValue("Week 1", cell, "3/"+[]string{"4", "5", "6", "7", "8", "9", "10"}[i]+"/2024"))
	}
	require.NoError(t, f.SetSheetRow("Week 1", "A6", &[]interface{}{"Alice", "2p-10p", "6a-3p"}))

	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, target, filename string, body []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type testServer struct {
	router  *chi.Mux
	hub     *sse.Hub
	storage *storage.LocalStorage
}

func newTestServer(t *testing.T, jwtService jwt.Service) testServer {
	t.Helper()
	return newTestServerWithRuns(t, jwtService, nil)
}

func newTestServerWithRuns(t *testing.T, jwtService jwt.Service, runRepo validation.RunRepository) testServer {
	t.Helper()
	v, err := validationService.NewValidator(testLayout())
	require.NoError(t, err)
	hub := sse.NewHub()
	svc := validationService.NewValidationService(v, runRepo, hub)

	store, err := storage.NewLocalStorage(t.TempDir(), "http://example.test/api/v1/validations/files")
	require.NoError(t, err)

	handler := NewValidationHandler(svc, store, jwtService, excel.Options{}, 1<<20)
	router := NewRouter(RouterOptions{Env: "test", LogLevel: slog.LevelError}, jwtService, handler)
	return testServer{router: router, hub: hub, storage: store}
}

// runStore keeps validated runs in memory.
type runStore struct {
	runs []validation.Run
}

func (r *runStore) Reset(ctx context.Context) error { return nil }

func (r *runStore) Append(ctx context.Context, run validation.Run) error {
	r.runs = append(r.runs, run)
	return nil
}

func (r *runStore) List(ctx context.Context, filter validation.RunFilter) ([]validation.RunRecord, int64, error) {
	var records []validation.RunRecord
	for _, run := range r.runs {
		records = append(records, validation.RunRecord{
			ID:            run.ID.String(),
			Sheet:         run.Sheet,
			Summary:       run.Summary(),
			CriticalCount: len(run.CriticalWarnings),
			CautionCount:  len(run.CautionWarnings),
			CellCount:     len(run.Cells),
			StartedAt:     run.StartedAt,
		})
	}
	return records, int64(len(records)), nil
}

func (r *runStore) GetCells(ctx context.Context, runID string) ([]validation.CellResult, error) {
	for _, run := range r.runs {
		if run.ID.String() == runID {
			return run.Cells, nil
		}
	}
	return nil, validation.ErrRunNotFound
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestValidationHandler_Validate(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, uploadRequest(t, "/api/v1/validations", "roster.xlsx", scheduleWorkbook(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	assert.True(t, env.Success)

	var resp validation.ValidateWorkbookResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.Len(t, resp.Sheets, 1)
	sheet := resp.Sheets[0]
	assert.Equal(t, "Week 1", sheet.Sheet)
	assert.Contains(t, sheet.CriticalWarnings, "**CRITICAL** | Alice closes on Monday but opens on Tuesday")
	assert.Len(t, sheet.Cells, 7)
	assert.Equal(t, "03/05", sheet.Cells[1].Date)
	assert.Equal(t, validation.StatusCritical, sheet.Cells[1].Status)
	assert.Nil(t, resp.AnnotatedURL)
}

func TestValidationHandler_ValidateWithoutCells(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, uploadRequest(t, "/api/v1/validations?include_cells=false", "roster.xlsx", scheduleWorkbook(t)))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validation.ValidateWorkbookResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
	require.Len(t, resp.Sheets, 1)
	assert.Empty(t, resp.Sheets[0].Cells)
}

func TestValidationHandler_ValidateAnnotated(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, uploadRequest(t, "/api/v1/validations?annotate=true", "roster.xlsx", scheduleWorkbook(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp validation.ValidateWorkbookResponse
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &resp))
	require.NotNil(t, resp.AnnotatedURL)
	require.True(t, strings.HasPrefix(*resp.AnnotatedURL, "http://example.test/api/v1/validations/files/annotated/"))
	assert.True(t, strings.HasSuffix(*resp.AnnotatedURL, "-roster.xlsx"))

	key := strings.TrimPrefix(*resp.AnnotatedURL, "http://example.test/api/v1/validations/files/")
	dl := httptest.NewRecorder()
	srv.router.ServeHTTP(dl, httptest.NewRequest(http.MethodGet, "/api/v1/validations/files/"+key, nil))
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, xlsxContentType, dl.Header().Get("Content-Type"))

	f, err := excelize.OpenReader(dl.Body)
	require.NoError(t, err)
	summary, err := f.GetCellValue("Week 1", "B15")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(summary, "**CRITICAL** | Alice closes on Monday but opens on Tuesday"))

	rows, err := f.GetRows(excel.DefaultLogSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 8)
}

func TestValidationHandler_ValidateBadUploads(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, uploadRequest(t, "/api/v1/validations", "roster.csv", []byte("a,b")))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode(t, rec).Error.Details, "file")

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, uploadRequest(t, "/api/v1/validations", "roster.xlsx", []byte("not a workbook")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/validations", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidationHandler_RunHistoryDisabled(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validations/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestValidationHandler_ListRuns(t *testing.T) {
	srv := newTestServerWithRuns(t, nil, &runStore{})

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, uploadRequest(t, "/api/v1/validations", "roster.xlsx", scheduleWorkbook(t)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validations/runs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Page)
	assert.Equal(t, 5, env.Meta.Limit)
	assert.Equal(t, int64(1), env.Meta.TotalItems)
	assert.Equal(t, 1, env.Meta.TotalPages)

	var runs []validation.RunRecord
	require.NoError(t, json.Unmarshal(env.Data, &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "Week 1", runs[0].Sheet)
	assert.Equal(t, 7, runs[0].CellCount)

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validations/runs/"+runs[0].ID+"/cells", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var cells []validation.CellResult
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &cells))
	assert.Len(t, cells, 7)

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validations/runs?limit=500", nil))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestValidationHandler_StreamTokenRequiresJWT(t *testing.T) {
	srv := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validations/stream/token", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationHandler_AuthRequired(t *testing.T) {
	jwtService := jwt.NewJWTService("test-secret", "1h")
	srv := newTestServer(t, jwtService)

	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, uploadRequest(t, "/api/v1/validations", "roster.xlsx", scheduleWorkbook(t)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, _, err := jwtService.GenerateAccessToken("checker")
	require.NoError(t, err)

	req := uploadRequest(t, "/api/v1/validations", "roster.xlsx", scheduleWorkbook(t))
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// SSE tokens cannot be used as bearer tokens.
	sseToken, _, err := jwtService.GenerateSSEToken("checker")
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/v1/validations/runs", nil)
	req.Header.Set("Authorization", "Bearer "+sseToken)
	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidationHandler_StreamToken(t *testing.T) {
	jwtService := jwt.NewJWTService("test-secret", "1h")
	srv := newTestServer(t, jwtService)

	token, _, err := jwtService.GenerateAccessToken("dashboard")
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/validations/stream/token", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var data struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &data))
	subject, err := jwtService.ValidateSSEToken(data.Token)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", subject)

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validations/stream", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	srv.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/validations/stream?token="+token, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestValidationHandler_Stream(t *testing.T) {
	srv := newTestServer(t, nil)
	httpSrv := httptest.NewServer(srv.router)
	defer httpSrv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpSrv.URL+"/api/v1/validations/stream?sheet=Week%201", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	buf := make([]byte, 4096)
	n, err := resp.Body.Read(buf)
	require.NoError(t, err)
	assert.Contains(t, string(buf[:n]), "event: connected")

	require.Eventually(t, func() bool { return srv.hub.SubscriberCount("Week 1") == 1 }, time.Second, 10*time.Millisecond)

	upload := uploadRequest(t, httpSrv.URL+"/api/v1/validations", "roster.xlsx", scheduleWorkbook(t))
	upload.RequestURI = ""
	uploadResp, err := http.DefaultClient.Do(upload)
	require.NoError(t, err)
	io.Copy(io.Discard, uploadResp.Body)
	uploadResp.Body.Close()
	require.Equal(t, http.StatusOK, uploadResp.StatusCode)

	var got strings.Builder
	for !strings.Contains(got.String(), "Alice closes on Monday") {
		n, err := resp.Body.Read(buf)
		require.NoError(t, err)
		got.Write(buf[:n])
	}
	assert.Contains(t, got.String(), "event: run_completed")
	assert.Contains(t, got.String(), `"sheet":"Week 1"`)
}
