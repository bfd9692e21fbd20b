package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"

	"netinventory/internal/logging"
	"netinventory/internal/models"
	"netinventory/internal/tabular"
)

// exportColumns matches the import header so exports can be re-imported.
var exportColumns = []string{"id", "name", "ip_address", "location", "status", "detected_at", "latitude", "longitude"}

// handleExportCSV exports devices to CSV
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not fetch devices", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=devices.csv")

	writer := csv.NewWriter(w)
	writer.Write(exportColumns)
	for _, d := range devices {
		writer.Write([]string{
			strconv.FormatInt(d.ID, 10),
			d.Name,
			d.IPAddress,
			models.StringOr(d.Location, ""),
			models.StringOr(d.Status, ""),
			d.DetectedAt,
			formatFloat(d.Latitude),
			formatFloat(d.Longitude),
		})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("write csv export", "error", err)
	}
}

// handleExportExcel exports devices to an .xlsx workbook
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not fetch devices", err)
		return
	}

	rows := make([][]any, 0, len(devices))
	for _, d := range devices {
		rows = append(rows, []any{
			d.ID,
			d.Name,
			d.IPAddress,
			optional(d.Location),
			optional(d.Status),
			d.DetectedAt,
			optional(d.Latitude),
			optional(d.Longitude),
		})
	}

	// Buffer so a write failure can still produce an error status.
	var buf bytes.Buffer
	if err := tabular.WriteXLSX(&buf, "Devices", exportColumns, rows); err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "error writing excel file", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=devices.xlsx")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context(), s.logger).Error("write excel export", "error", err)
	}
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

// optional dereferences p for the spreadsheet writer; nil leaves the cell empty.
func optional[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
