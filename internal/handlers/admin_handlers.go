package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"netinventory/internal/db"
	"netinventory/internal/logging"
)

// handleBackup streams a consistent snapshot of the database file.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context(), s.logger)

	dir, err := os.MkdirTemp("", "netinventory-backup-*")
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not create backup", err)
		return
	}
	defer os.RemoveAll(dir)

	path := filepath.Join(dir, "backup.db")
	if err := s.store.Backup(r.Context(), path); err != nil {
		if errors.Is(err, db.ErrUnsupported) {
			s.writeError(w, r, http.StatusNotImplemented, "backup is only available for sqlite databases", err)
			return
		}
		s.writeError(w, r, http.StatusInternalServerError, "could not create backup", err)
		return
	}

	file, err := os.Open(path)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, "could not open backup file", err)
		return
	}
	defer file.Close()

	name := "inventory-" + time.Now().Format("20060102-150405") + ".db"
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.Header().Set("Content-Type", "application/x-sqlite3")

	if _, err := io.Copy(w, file); err != nil {
		logger.Error("stream backup", "error", err)
		return
	}
	logger.Info("database backup downloaded", "file", name)
}
