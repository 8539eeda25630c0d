package httpserver

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/karnyvex/dominator/internal/arbitrage"
	"github.com/karnyvex/dominator/internal/domination"
	"github.com/karnyvex/dominator/internal/history"
	"github.com/karnyvex/dominator/internal/storage"
	"github.com/karnyvex/dominator/pkg/types"
	"go.uber.org/zap"
)

const (
	defaultSearchLimit = 25
	maxSearchLimit     = 200
)

// DominationService runs one domination analysis.
type DominationService interface {
	AnalyzeRegion(ctx context.Context, regionID types.RegionID) ([]*domination.Opportunity, error)
}

// ArbitrageService runs one cross-region scan.
type ArbitrageService interface {
	Scan(ctx context.Context, window types.TimeWindow) (*arbitrage.ScanReport, error)
}

// ImportService loads history and item names.
type ImportService interface {
	ImportRegion(ctx context.Context, regionID types.RegionID) (history.ImportResult, error)
	ImportAll(ctx context.Context) ([]history.ImportResult, error)
	ImportNames(ctx context.Context) (int, error)
}

// ItemService resolves and searches item names.
type ItemService interface {
	Name(ctx context.Context, typeID types.TypeID) (string, error)
	Search(ctx context.Context, term string, limit int) ([]types.ItemName, error)
}

// StatisticsReader exposes what the statistics endpoints read.
type StatisticsReader interface {
	GetLatest(ctx context.Context, typeID types.TypeID, regionID types.RegionID) (*types.ItemStatistics, error)
	CountByRegion(ctx context.Context) (map[types.RegionID]int, error)
	LatestDate(ctx context.Context, regionID types.RegionID) (time.Time, error)
	CountItemNames(ctx context.Context) (int, error)
}

// APIHandler serves the JSON API.
type APIHandler struct {
	domination DominationService
	arbitrage  ArbitrageService
	imports    ImportService
	items      ItemService
	statistics StatisticsReader
	regions    []types.RegionID
	logger     *zap.Logger
}

// ErrorResponse represents an HTTP error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ImportResponse reports a statistics import.
type ImportResponse struct {
	Results []history.ImportResult `json:"results"`
	Failed  int                    `json:"failed"`
}

// NamesImportResponse reports an item name import.
type NamesImportResponse struct {
	Imported int `json:"imported"`
}

// RegionStatistics is the latest statistics row of an item in one region.
type RegionStatistics struct {
	RegionID   types.RegionID        `json:"region_id"`
	RegionName string                `json:"region_name"`
	Statistics *types.ItemStatistics `json:"statistics"`
}

// ItemResponse describes one item across the import regions.
type ItemResponse struct {
	TypeID  types.TypeID       `json:"type_id"`
	Name    string             `json:"name"`
	Regions []RegionStatistics `json:"regions"`
}

// RegionSummary describes the imported data of one region.
type RegionSummary struct {
	RegionID   types.RegionID `json:"region_id"`
	RegionName string         `json:"region_name"`
	Records    int            `json:"records"`
	LatestDate string         `json:"latest_date,omitempty"`
}

// SummaryResponse describes everything imported so far.
type SummaryResponse struct {
	ItemNames int             `json:"item_names"`
	Regions   []RegionSummary `json:"regions"`
}

// Routes mounts the API under r.
func (h *APIHandler) Routes(r chi.Router) {
	r.Post("/domination/{regionID}", h.HandleDomination)
	r.Get("/arbitrage", h.HandleArbitrage)
	r.Post("/statistics/import", h.HandleImportAll)
	r.Post("/statistics/import/{regionID}", h.HandleImportRegion)
	r.Get("/statistics/summary", h.HandleSummary)
	r.Post("/names/import", h.HandleImportNames)
	r.Get("/items/search", h.HandleSearch)
	r.Get("/items/{typeID}", h.HandleItem)
}

// HandleDomination handles POST /api/domination/{regionID}.
func (h *APIHandler) HandleDomination(w http.ResponseWriter, r *http.Request) {
	regionID, ok := h.regionParam(w, r)
	if !ok {
		return
	}

	opps, err := h.domination.AnalyzeRegion(r.Context(), regionID)
	if err != nil {
		h.writeFailure(w, "domination", err)
		return
	}

	if opps == nil {
		opps = []*domination.Opportunity{}
	}
	h.writeJSON(w, http.StatusOK, opps)
}

// HandleArbitrage handles GET /api/arbitrage?window=weekly.
func (h *APIHandler) HandleArbitrage(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("window")
	if raw == "" {
		raw = string(types.Weekly)
	}

	window, err := types.ParseTimeWindow(raw)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	report, err := h.arbitrage.Scan(r.Context(), window)
	if err != nil {
		h.writeFailure(w, "arbitrage", err)
		return
	}

	h.writeJSON(w, http.StatusOK, report)
}

// HandleImportRegion handles POST /api/statistics/import/{regionID}.
func (h *APIHandler) HandleImportRegion(w http.ResponseWriter, r *http.Request) {
	regionID, ok := h.regionParam(w, r)
	if !ok {
		return
	}

	result, err := h.imports.ImportRegion(r.Context(), regionID)
	if err != nil {
		h.writeFailure(w, "statistics-import", err)
		return
	}

	h.writeJSON(w, http.StatusOK, ImportResponse{Results: []history.ImportResult{result}})
}

// HandleImportAll handles POST /api/statistics/import.
// Partial failures still return 200 with the per-region errors filled in.
func (h *APIHandler) HandleImportAll(w http.ResponseWriter, r *http.Request) {
	results, err := h.imports.ImportAll(r.Context())

	resp := ImportResponse{Results: results}
	for _, result := range results {
		if result.Error != "" {
			resp.Failed++
		}
	}

	if err != nil && resp.Failed == len(results) {
		h.writeFailure(w, "statistics-import", err)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleImportNames handles POST /api/names/import.
func (h *APIHandler) HandleImportNames(w http.ResponseWriter, r *http.Request) {
	count, err := h.imports.ImportNames(r.Context())
	if err != nil {
		h.writeFailure(w, "names-import", err)
		return
	}

	h.writeJSON(w, http.StatusOK, NamesImportResponse{Imported: count})
}

// HandleSearch handles GET /api/items/search?q=<term>&limit=<n>.
func (h *APIHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	term := strings.TrimSpace(r.URL.Query().Get("q"))
	if term == "" {
		h.writeError(w, "missing required query parameter: q", http.StatusBadRequest)
		return
	}

	limit := defaultSearchLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			h.writeError(w, "invalid limit: "+raw, http.StatusBadRequest)
			return
		}
		limit = min(parsed, maxSearchLimit)
	}

	found, err := h.items.Search(r.Context(), term, limit)
	if err != nil {
		h.writeFailure(w, "item-search", err)
		return
	}

	if found == nil {
		found = []types.ItemName{}
	}
	h.writeJSON(w, http.StatusOK, found)
}

// HandleItem handles GET /api/items/{typeID}.
func (h *APIHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "typeID")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		h.writeError(w, "invalid type id: "+raw, http.StatusBadRequest)
		return
	}
	typeID := types.TypeID(id)

	name, err := h.items.Name(r.Context(), typeID)
	if err != nil {
		h.logger.Debug("item-name-unresolved",
			zap.Int32("type-id", int32(typeID)),
			zap.Error(err))
		name = types.UnknownItemName
	}

	resp := ItemResponse{
		TypeID:  typeID,
		Name:    name,
		Regions: make([]RegionStatistics, 0, len(h.regions)),
	}

	for _, regionID := range h.regions {
		stats, err := h.statistics.GetLatest(r.Context(), typeID, regionID)
		if err != nil {
			h.writeFailure(w, "item-statistics", err)
			return
		}
		if stats == nil {
			continue
		}

		resp.Regions = append(resp.Regions, RegionStatistics{
			RegionID:   regionID,
			RegionName: types.RegionName(regionID),
			Statistics: stats,
		})
	}

	if len(resp.Regions) == 0 && name == types.UnknownItemName {
		h.writeError(w, "item not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// HandleSummary handles GET /api/statistics/summary.
func (h *APIHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	names, err := h.statistics.CountItemNames(ctx)
	if err != nil {
		h.writeFailure(w, "statistics-summary", err)
		return
	}

	counts, err := h.statistics.CountByRegion(ctx)
	if err != nil {
		h.writeFailure(w, "statistics-summary", err)
		return
	}

	resp := SummaryResponse{
		ItemNames: names,
		Regions:   make([]RegionSummary, 0, len(h.regions)),
	}

	for _, regionID := range h.regions {
		summary := RegionSummary{
			RegionID:   regionID,
			RegionName: types.RegionName(regionID),
			Records:    counts[regionID],
		}

		latest, err := h.statistics.LatestDate(ctx, regionID)
		switch {
		case err == nil:
			summary.LatestDate = latest.Format(time.DateOnly)
		case !errors.Is(err, storage.ErrNotFound):
			h.writeFailure(w, "statistics-summary", err)
			return
		}

		resp.Regions = append(resp.Regions, summary)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *APIHandler) regionParam(w http.ResponseWriter, r *http.Request) (types.RegionID, bool) {
	raw := chi.URLParam(r, "regionID")
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil || id <= 0 {
		h.writeError(w, "invalid region id: "+raw, http.StatusBadRequest)
		return 0, false
	}
	return types.RegionID(id), true
}

// writeFailure maps an operation error onto a status code.
func (h *APIHandler) writeFailure(w http.ResponseWriter, operation string, err error) {
	status := http.StatusInternalServerError

	var upstream *types.UpstreamError
	switch {
	case errors.Is(err, domination.ErrUnknownRegion), errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrUnknownTimeWindow):
		status = http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	case errors.As(err, &upstream):
		status = http.StatusBadGateway
	}

	h.logger.Error("api-request-failed",
		zap.String("operation", operation),
		zap.Int("status", status),
		zap.Error(err))

	h.writeError(w, err.Error(), status)
}

func (h *APIHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		h.logger.Error("failed-to-encode-response", zap.Error(err))
	}
}

// writeError writes a JSON error response.
func (h *APIHandler) writeError(w http.ResponseWriter, message string, statusCode int) {
	h.writeJSON(w, statusCode, ErrorResponse{Error: message})
}
