package httpadapter

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/mood-builder/internal/core/domain"
	"github.com/kirillkom/mood-builder/internal/core/ports"
)

const (
	dateLayout  = "2006-01-02"
	monthLayout = "2006-01"
	xlsxMime    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (rt *Router) previewAnalysis(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	outcome, err := rt.services.Journal.Preview(r.Context(), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// createEntry saves content with the analysis supplied in the body, or runs
// a fresh analysis when none is given.
func (rt *Router) createEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content  string                 `json:"content"`
		Analysis *domain.AnalysisResult `json:"analysis"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	var (
		saved *ports.SavedEntry
		err   error
	)
	if req.Analysis != nil {
		saved, err = rt.services.Journal.SaveAnalyzed(r.Context(), principal(r), req.Content, *req.Analysis)
	} else {
		saved, err = rt.services.Journal.CreateFromText(r.Context(), principal(r), req.Content)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (rt *Router) listEntries(w http.ResponseWriter, r *http.Request) {
	filter, err := parseEntryFilter(r, rt.location)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entries, err := rt.services.Journal.ListEntries(r.Context(), principal(r), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (rt *Router) getEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := rt.services.Journal.GetEntry(r.Context(), principal(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (rt *Router) exportEntries(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := rt.services.Insights.Export(r.Context(), principal(r), &buf); err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", xlsxMime)
	w.Header().Set("Content-Disposition", `attachment; filename="mood-journal.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (rt *Router) moodTrends(w http.ResponseWriter, r *http.Request) {
	trends, err := rt.services.Insights.MoodTrends(r.Context(), principal(r), r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trends)
}

func (rt *Router) calendar(w http.ResponseWriter, r *http.Request) {
	var month time.Time
	if raw := r.URL.Query().Get("month"); raw != "" {
		parsed, err := time.ParseInLocation(monthLayout, raw, rt.location)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "month must look like 2006-01"})
			return
		}
		month = parsed
	}
	days, err := rt.services.Insights.Calendar(r.Context(), principal(r), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"days": days})
}

func (rt *Router) summary(w http.ResponseWriter, r *http.Request) {
	summary, err := rt.services.Insights.Summary(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// parseEntryFilter reads from/to as dates in loc, to being inclusive.
func parseEntryFilter(r *http.Request, loc *time.Location) (domain.EntryFilter, error) {
	query := r.URL.Query()
	var filter domain.EntryFilter
	if raw := query.Get("from"); raw != "" {
		from, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse from", err)
		}
		filter.From = from
	}
	if raw := query.Get("to"); raw != "" {
		to, err := time.ParseInLocation(dateLayout, raw, loc)
		if err != nil {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse to", err)
		}
		filter.To = to.AddDate(0, 0, 1)
	}
	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filter, domain.WrapError(domain.ErrInvalidInput, "parse limit", strconv.ErrSyntax)
		}
		filter.Limit = limit
	}
	return filter, nil
}
