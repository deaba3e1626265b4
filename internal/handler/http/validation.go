package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/schedule-checker/internal/domain/validation"
	"github.com/cmlabs-hris/schedule-checker/internal/handler/http/response"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/jwt"
	"github.com/cmlabs-hris/schedule-checker/internal/pkg/storage"
	"github.com/cmlabs-hris/schedule-checker/internal/repository/excel"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ValidationHandler interface {
	Validate(w http.ResponseWriter, r *http.Request)
	ListRuns(w http.ResponseWriter, r *http.Request)
	GetRunCells(w http.ResponseWriter, r *http.Request)
	DownloadFile(w http.ResponseWriter, r *http.Request)

	// SSE
	GetSSEToken(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

type validationHandlerImpl struct {
	service        validation.Service
	storage        storage.FileStorage
	jwtService     jwt.Service
	workbookOpts   excel.Options
	maxUploadBytes int64
}

// NewValidationHandler creates the validation handler. fileStorage and
// jwtService may be nil; annotation and stream tokens are then disabled.
func NewValidationHandler(service validation.Service, fileStorage storage.FileStorage, jwtService jwt.Service, workbookOpts excel.Options, maxUploadBytes int64) ValidationHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	return &validationHandlerImpl{
		service:        service,
		storage:        fileStorage,
		jwtService:     jwtService,
		workbookOpts:   workbookOpts,
		maxUploadBytes: maxUploadBytes,
	}
}

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// getBoolQueryParam gets a bool query parameter with a default value
func getBoolQueryParam(r *http.Request, key string, defaultVal bool) bool {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val == "true" || val == "1"
}

// Validate checks every schedule sheet of an uploaded workbook.
func (h *validationHandlerImpl) Validate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		slog.Error("Failed to parse multipart form", "error", err)
		response.BadRequest(w, "Failed to parse form data", nil)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			response.BadRequest(w, "Field 'file' is required", nil)
			return
		}
		slog.Error("Failed to get file from form", "error", err)
		response.BadRequest(w, "Invalid file upload", nil)
		return
	}
	defer file.Close()

	req := validation.ValidateWorkbookRequest{
		Filename:     fileHeader.Filename,
		Annotate:     getBoolQueryParam(r, "annotate", false),
		IncludeCells: getBoolQueryParam(r, "include_cells", true),
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	if req.Annotate && h.storage == nil {
		response.HandleError(w, validation.ErrAnnotationDisabled)
		return
	}

	wb, err := excel.Open(file, h.workbookOpts)
	if err != nil {
		slog.Warn("Uploaded workbook unreadable", "filename", req.Filename, "error", err)
		response.HandleError(w, err)
		return
	}
	defer wb.Close()

	result, err := h.service.ValidateWorkbook(r.Context(), wb)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	resp := validation.NewValidateWorkbookResponse(result, req.IncludeCells)

	if req.Annotate {
		url, err := h.storeAnnotated(r, wb, req.Filename)
		if err != nil {
			slog.Error("Failed to store annotated workbook", "filename", req.Filename, "error", err)
			response.HandleError(w, err)
			return
		}
		resp.AnnotatedURL = &url
	}

	response.SuccessWithMessage(w, "Workbook validated", resp)
}

func (h *validationHandlerImpl) storeAnnotated(r *http.Request, wb *excel.Workbook, filename string) (string, error) {
	var buf bytes.Buffer
	if _, err := wb.WriteTo(&buf); err != nil {
		return "", fmt.Errorf("encode workbook: %w", err)
	}

	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	key, err := h.storage.Upload(r.Context(), &buf, fmt.Sprintf("annotated/%s-%s", uuid.NewString(), name))
	if err != nil {
		return "", err
	}
	return h.storage.GetURL(key), nil
}

// ListRuns returns persisted validation runs.
func (h *validationHandlerImpl) ListRuns(w http.ResponseWriter, r *http.Request) {
	filter := validation.RunFilter{
		Page:      getIntQueryParam(r, "page", 0),
		Limit:     getIntQueryParam(r, "limit", 0),
		SortOrder: r.URL.Query().Get("sort_order"),
	}
	if sheet := r.URL.Query().Get("sheet"); sheet != "" {
		filter.Sheet = &sheet
	}

	result, err := h.service.ListRuns(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMeta(w, result.Runs, &response.Meta{
		Page:       result.Page,
		Limit:      result.Limit,
		TotalItems: result.TotalCount,
		TotalPages: result.TotalPages,
	})
}

// GetRunCells returns the audit rows of one run.
func (h *validationHandlerImpl) GetRunCells(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")

	cells, err := h.service.GetRunCells(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, cells)
}

// DownloadFile serves a stored annotated workbook.
func (h *validationHandlerImpl) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		response.HandleError(w, validation.ErrAnnotationDisabled)
		return
	}

	key := chi.URLParam(r, "*")
	rc, err := h.storage.Download(r.Context(), key)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", path.Base(key)))
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("Failed to send file", "key", key, "error", err)
	}
}

// GetSSEToken generates a short-lived token for SSE connection
// The route is only registered when JWT is enabled.
func (h *validationHandlerImpl) GetSSEToken(w http.ResponseWriter, r *http.Request) {
	_, claims, _ := jwtauth.FromContext(r.Context())
	subject, _ := claims["sub"].(string)
	if subject == "" {
		response.Unauthorized(w, "Unauthorized")
		return
	}

	token, expiresIn, err := h.jwtService.GenerateSSEToken(subject)
	if err != nil {
		slog.Error("Failed to generate SSE token", "error", err)
		response.InternalServerError(w, "Failed to generate SSE token")
		return
	}

	response.Success(w, map[string]interface{}{
		"token":      token,
		"expires_in": expiresIn,
	})
}

// Stream pushes a run_completed event for every validated sheet.
func (h *validationHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	subject := "anonymous"
	if h.jwtService != nil {
		// Get token from query parameter (SSE doesn't support custom headers)
		tokenStr := r.URL.Query().Get("token")
		if tokenStr == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		var err error
		subject, err = h.jwtService.ValidateSSEToken(tokenStr)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}
	}

	// Check if streaming is supported
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sheet := r.URL.Query().Get("sheet")
	events, cleanup := h.service.Subscribe(r.Context(), sheet)
	defer cleanup()

	connected, _ := json.Marshal(map[string]string{"status": "connected", "subject": subject, "sheet": sheet})
	fmt.Fprintf(w, "event: connected\ndata: %s\n\n", connected)
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
