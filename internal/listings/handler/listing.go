package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"staybook/internal/listings/service"
	apperrors "staybook/pkg/errors"
	httputil "staybook/pkg/http"
	"staybook/pkg/logger"
	"staybook/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ListingHandler struct {
	service service.ListingService
	log     *logger.Logger
}

func NewListingHandler(service service.ListingService, log *logger.Logger) *ListingHandler {
	return &ListingHandler{
		service: service,
		log:     log,
	}
}

func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var listing model.Listing
	if err := json.NewDecoder(r.Body).Decode(&listing); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Create", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.service.Create(r.Context(), &listing); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Create", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, listing); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ListingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	listing, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, listing); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) GetNewest(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			if writeErr := httputil.WriteError(w, apperrors.InvalidInput(fmt.Sprintf("invalid limit parameter: %s", s))); writeErr != nil {
				h.log.Error("failed to write error response", "handler", "GetNewest", "operation", "WriteError", "error", writeErr)
			}
			return
		}
		limit = v
	}

	listings, err := h.service.GetNewest(r.Context(), limit)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetNewest", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, listings); err != nil {
		h.log.Error("failed to write success response", "handler", "GetNewest", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	filter, err := h.parseSearchFilter(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	results, err := h.service.Search(r.Context(), filter)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Search", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, results); err != nil {
		h.log.Error("failed to write success response", "handler", "Search", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ListingHandler) parseSearchFilter(r *http.Request) (*model.SearchFilter, error) {
	query := r.URL.Query()
	filter := &model.SearchFilter{}

	if s := query.Get("province_id"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid province_id parameter: %s", s))
		}
		filter.ProvinceID = &v
	}
	if s := query.Get("district_id"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid district_id parameter: %s", s))
		}
		filter.DistrictID = &v
	}
	if s := query.Get("guests"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid guests parameter: %s", s))
		}
		filter.Guests = v
	}
	if s := query.Get("min_price"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid min_price parameter: %s", s))
		}
		filter.MinPrice = &v
	}
	if s := query.Get("max_price"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, apperrors.InvalidInput(fmt.Sprintf("invalid max_price parameter: %s", s))
		}
		filter.MaxPrice = &v
	}

	start, err := httputil.ExtractDateParam(r, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := httputil.ExtractDateParam(r, "end_date")
	if err != nil {
		return nil, err
	}
	filter.StartDate = start
	filter.EndDate = end

	filter.Type = query.Get("type")
	if s := query.Get("amenities"); s != "" {
		filter.Amenities = strings.Split(s, ",")
	}

	return filter, nil
}

func (h *ListingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/listings", h.Create)
	router.GET("/api/v1/listings/id/:id", h.GetByID)
	router.GET("/api/v1/listings/newest", h.GetNewest)
	router.GET("/api/v1/listings/search", h.Search)
}
