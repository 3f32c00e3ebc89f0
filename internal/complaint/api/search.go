package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/bihar-gov/sevalink/internal/complaint/domain"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
)

const (
	searchDateLayout     = "2006-01-02"
	searchSummaryLength  = 200
	defaultSearchLimit   = 10
	defaultAdvancedLimit = 20
)

// SearchResult is one row of a search response. The description is
// truncated to keep result pages light; the full text is available on
// the complaint detail endpoint.
type SearchResult struct {
	ComplaintID string               `json:"complaintId"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.Category      `json:"category"`
	Priority    domain.Priority      `json:"priority"`
	Status      domain.Status        `json:"status"`
	Department  domain.DepartmentRef `json:"department"`
	District    string               `json:"district"`
	Tags        []string             `json:"tags"`
	Rating      *int                 `json:"rating,omitempty"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// Pagination describes the page window of a search response
type Pagination struct {
	TotalResults   int  `json:"totalResults"`
	CurrentPage    int  `json:"currentPage"`
	TotalPages     int  `json:"totalPages"`
	ResultsPerPage int  `json:"resultsPerPage"`
	HasNextPage    bool `json:"hasNextPage"`
	HasPrevPage    bool `json:"hasPrevPage"`
}

// SearchComplaints runs a simple query-string search
func (h *Handler) SearchComplaints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := domain.SearchFilter{
		Query:      q.Get("q"),
		Category:   q.Get("category"),
		Status:     q.Get("status"),
		Priority:   q.Get("priority"),
		Department: q.Get("department"),
		Email:      q.Get("email"),
		Page:       queryInt(r, "page", 1),
		Limit:      queryInt(r, "limit", defaultSearchLimit),
		SortBy:     q.Get("sortBy"),
		SortOrder:  q.Get("sortOrder"),
	}

	if s := q.Get("startDate"); s != "" {
		t, err := time.Parse(searchDateLayout, s)
		if err != nil {
			writeError(w, errors.BadRequest("startDate must be formatted YYYY-MM-DD"))
			return
		}
		filter.StartDate = &t
	}
	if s := q.Get("endDate"); s != "" {
		t, err := time.Parse(searchDateLayout, s)
		if err != nil {
			writeError(w, errors.BadRequest("endDate must be formatted YYYY-MM-DD"))
			return
		}
		// Inclusive: push to the end of the day
		end := t.Add(24*time.Hour - time.Millisecond)
		filter.EndDate = &end
	}

	h.runSearch(w, r, filter)
}

// AdvancedSearchRequest is the POST body for multi-value searches
type AdvancedSearchRequest struct {
	Query      string   `json:"query"`
	Categories []string `json:"categories"`
	Statuses   []string `json:"statuses"`
	Priorities []string `json:"priorities"`
	Districts  []string `json:"districts"`
	DateRange  *struct {
		Start string `json:"start"`
		End   string `json:"end"`
	} `json:"dateRange"`
	HasRating   *bool `json:"hasRating"`
	RatingRange *struct {
		Min int `json:"min"`
		Max int `json:"max"`
	} `json:"ratingRange"`
	Page      int    `json:"page"`
	Limit     int    `json:"limit"`
	SortBy    string `json:"sortBy"`
	SortOrder string `json:"sortOrder"`
}

// AdvancedSearch runs a structured search with list filters
func (h *Handler) AdvancedSearch(w http.ResponseWriter, r *http.Request) {
	var req AdvancedSearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	filter := domain.SearchFilter{
		Query:      req.Query,
		Categories: req.Categories,
		Statuses:   req.Statuses,
		Priorities: req.Priorities,
		Districts:  req.Districts,
		HasRating:  req.HasRating,
		Page:       req.Page,
		Limit:      req.Limit,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAdvancedLimit
	}

	if req.DateRange != nil {
		if req.DateRange.Start != "" {
			t, err := time.Parse(searchDateLayout, req.DateRange.Start)
			if err != nil {
				writeError(w, errors.BadRequest("dateRange.start must be formatted YYYY-MM-DD"))
				return
			}
			filter.StartDate = &t
		}
		if req.DateRange.End != "" {
			t, err := time.Parse(searchDateLayout, req.DateRange.End)
			if err != nil {
				writeError(w, errors.BadRequest("dateRange.end must be formatted YYYY-MM-DD"))
				return
			}
			end := t.Add(24*time.Hour - time.Millisecond)
			filter.EndDate = &end
		}
	}

	if req.RatingRange != nil {
		filter.RatingMin = req.RatingRange.Min
		if filter.RatingMin < 1 {
			filter.RatingMin = 1
		}
		filter.RatingMax = req.RatingRange.Max
		if filter.RatingMax < 1 || filter.RatingMax > 5 {
			filter.RatingMax = 5
		}
	}

	h.runSearch(w, r, filter)
}

func (h *Handler) runSearch(w http.ResponseWriter, r *http.Request, filter domain.SearchFilter) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultSearchLimit
	}

	complaints, total, breakdowns, err := h.repo.Search(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	results := make([]SearchResult, 0, len(complaints))
	for _, c := range complaints {
		results = append(results, toSearchResult(c))
	}

	totalPages := (total + filter.Limit - 1) / filter.Limit

	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"pagination": Pagination{
			TotalResults:   total,
			CurrentPage:    filter.Page,
			TotalPages:     totalPages,
			ResultsPerPage: filter.Limit,
			HasNextPage:    filter.Page < totalPages,
			HasPrevPage:    filter.Page > 1,
		},
		"breakdowns":  breakdowns,
		"searchQuery": filter.Query,
	})
}

func toSearchResult(c domain.Complaint) SearchResult {
	description := c.Description
	if len(description) > searchSummaryLength {
		description = description[:searchSummaryLength] + "..."
	}

	return SearchResult{
		ComplaintID: c.ComplaintID,
		Title:       c.Title,
		Description: description,
		Category:    c.Category,
		Priority:    c.Priority,
		Status:      c.Status,
		Department:  c.Department,
		District:    c.Location.District,
		Tags:        c.Tags,
		Rating:      c.Rating,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
