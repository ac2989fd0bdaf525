package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"complyform/internal/compliance"
	"complyform/models"
)

var maxRating = decimal.NewFromInt(5)

// normalizeDirectoryEntry приводит ключи сертификатов и коды к каноническому виду
func normalizeDirectoryEntry(rec *models.DirectoryRecord) error {
	rec.LegalName = strings.TrimSpace(rec.LegalName)
	if rec.LegalName == "" || len(rec.LegalName) > 255 {
		return errors.New("legalName is required and max length 255")
	}
	if rec.Rating.IsNegative() || rec.Rating.GreaterThan(maxRating) {
		return errors.New("rating must be between 0 and 5")
	}
	if rec.ProjectsCompleted < 0 {
		return errors.New("projectsCompleted must not be negative")
	}

	certs := models.Certifications{}
	for name, ok := range rec.Certifications {
		cat, err := compliance.ParseCategory(name)
		if err != nil {
			return err
		}
		certs[cat.CertificationKey()] = ok
	}
	rec.Certifications = certs

	codes := make([]string, 0, len(rec.JurisdictionCodes))
	for _, c := range rec.JurisdictionCodes {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			codes = append(codes, c)
		}
	}
	rec.JurisdictionCodes = codes

	naics := make([]string, 0, len(rec.NAICSCodes))
	for _, c := range rec.NAICSCodes {
		if c = strings.TrimSpace(c); c != "" {
			naics = append(naics, c)
		}
	}
	rec.NAICSCodes = naics
	return nil
}

// CreateDirectoryEntryHandler обрабатывает POST /api/directory
func (h *Handler) CreateDirectoryEntryHandler(w http.ResponseWriter, r *http.Request) {
	var rec models.DirectoryRecord
	if err := readJSON(w, r, &rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := normalizeDirectoryEntry(&rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.Store.CreateDirectoryEntry(r.Context(), &rec); err != nil {
		h.writeError(w, err, "create directory entry")
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// GetDirectoryEntryHandler обрабатывает GET /api/directory/{entryId}
func (h *Handler) GetDirectoryEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := intParam(r, "entryId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec, err := h.Store.GetDirectoryEntry(r.Context(), entryID)
	if err != nil {
		h.writeError(w, err, "get directory entry")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// UpdateDirectoryEntryHandler обрабатывает PUT /api/directory/{entryId}: полная замена записи
func (h *Handler) UpdateDirectoryEntryHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := intParam(r, "entryId")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var rec models.DirectoryRecord
	if err := readJSON(w, r, &rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := normalizeDirectoryEntry(&rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	prev, err := h.Store.GetDirectoryEntry(r.Context(), entryID)
	if err != nil {
		h.writeError(w, err, "get directory entry")
		return
	}
	rec.ID = entryID
	rec.CreatedAt = prev.CreatedAt
	if err := h.Store.UpdateDirectoryEntry(r.Context(), &rec); err != nil {
		h.writeError(w, err, "update directory entry")
		return
	}
	h.invalidate(r, prev, &rec)
	writeJSON(w, http.StatusOK, rec)
}

// MatchDirectoryHandler обрабатывает GET /api/directory/match
func (h *Handler) MatchDirectoryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.MatchFilter{
		JurisdictionCode: strings.ToUpper(strings.TrimSpace(q.Get("jurisdiction"))),
	}
	for _, v := range q["naics"] {
		for _, code := range strings.Split(v, ",") {
			if code = strings.TrimSpace(code); code != "" {
				filter.NAICSCodes = append(filter.NAICSCodes, code)
			}
		}
	}
	if c := q.Get("category"); c != "" {
		cat, err := compliance.ParseCategory(c)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		filter.Category = cat.CertificationKey()
	}
	if v := q.Get("min_rating"); v != "" {
		rating, err := decimal.NewFromString(v)
		if err != nil {
			http.Error(w, "Invalid min_rating", http.StatusBadRequest)
			return
		}
		filter.MinRating = rating
	}

	recs, err := h.Store.FindMatchingDirectoryEntries(r.Context(), filter)
	if err != nil {
		h.writeError(w, err, "match directory")
		return
	}
	if recs == nil {
		recs = []models.DirectoryRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handler) invalidate(r *http.Request, recs ...*models.DirectoryRecord) {
	if h.Cache == nil {
		return
	}
	if err := h.Cache.Invalidate(r.Context(), recs...); err != nil {
		h.Log.Warn().Err(err).Msg("directory cache invalidation failed")
	}
}
