package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"netinventory/internal/db"
	"netinventory/internal/events"
	"netinventory/internal/models"
)

type devicesResponse struct {
	Success bool            `json:"success"`
	Devices []models.Device `json:"devices"`
}

type deviceResponse struct {
	Success bool          `json:"success"`
	Device  models.Device `json:"device"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Devices int    `json:"devices"`
}

type logsResponse struct {
	Success bool                 `json:"success"`
	Logs    []models.ActivityLog `json:"logs"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "database unavailable", err)
		return
	}
	count, err := s.store.CountDevices(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusServiceUnavailable, "database unavailable", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok", Devices: count})
}

// handleSearchDevices lists devices, filtered by the optional q keyword.
func (s *Server) handleSearchDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to fetch devices", err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, devicesResponse{Success: true, Devices: devices})
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid device id", err)
		return
	}

	device, err := s.devices.Get(r.Context(), id)
	if err != nil {
		status := statusFor(err)
		msg := "failed to fetch device"
		if status == http.StatusNotFound {
			msg = fmt.Sprintf("device with id %d not found", id)
		}
		s.writeError(w, r, status, msg, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, deviceResponse{Success: true, Device: device})
}

type createDeviceRequest struct {
	Name      string   `json:"name"`
	IPAddress string   `json:"ip_address"`
	Location  *string  `json:"location"`
	Status    *string  `json:"status"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	device, err := s.devices.Create(r.Context(), models.Device{
		Name:      req.Name,
		IPAddress: req.IPAddress,
		Location:  req.Location,
		Status:    req.Status,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}, events.SourceAPI)
	if err != nil {
		status := statusFor(err)
		msg := "failed to create device"
		switch {
		case errors.Is(err, db.ErrDuplicateIP):
			msg = "a device with this IP address already exists"
		case status == http.StatusBadRequest:
			msg = err.Error()
		}
		s.writeError(w, r, status, msg, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, deviceResponse{Success: true, Device: device})
}

// handleListLogs returns the activity feed. With last_fetched (RFC3339)
// only newer entries are returned, otherwise the latest few.
func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if v := r.URL.Query().Get("last_fetched"); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			s.writeError(w, r, http.StatusBadRequest, "last_fetched must be an RFC3339 timestamp", err)
			return
		}
		since = t
	}

	logs, err := s.store.ListActivity(r.Context(), since, db.DefaultActivityLimit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "failed to fetch logs: "+err.Error(), err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, logsResponse{Success: true, Logs: logs})
}

// handleUploadExcel imports the spreadsheet sent in the "file" form field.
func (s *Server) handleUploadExcel(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadSize)

	var (
		file     multipart.File
		filename string
	)
	if err := r.ParseMultipartForm(s.maxUploadSize); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) || errors.Is(err, multipart.ErrMessageTooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "file too large", err)
			return
		}
		// fall through: the pipeline rejects the missing file
	} else {
		f, header, err := r.FormFile("file")
		if err == nil {
			defer f.Close()
			file, filename = f, header.Filename
		}
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var reader io.Reader
	if file != nil {
		reader = file
	}
	result, err := s.importer.Import(r.Context(), filename, reader)
	if err != nil {
		status := statusFor(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError {
			msg = "an error occurred while processing the file: " + err.Error()
		}
		s.writeError(w, r, status, msg, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, messageResponse{Message: result.Message()})
}
