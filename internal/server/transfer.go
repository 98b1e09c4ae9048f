package server

import (
	"fmt"
	"net/http"
	"time"

	"dota-draft-helper/internal/domain"
)

func (s *Server) exportData(w http.ResponseWriter, r *http.Request) {
	data, err := s.transfer.Export(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	filename := fmt.Sprintf("dota-draft-data-%s.json", time.Now().UTC().Format(time.DateOnly))
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) importData(w http.ResponseWriter, r *http.Request) {
	var data domain.ExportData
	if err := decodeBody(r, &data); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.transfer.Import(r.Context(), &data); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
