package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"estate-crm/microservices/deals-service/models"
	"estate-crm/microservices/deals-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type DealHandler struct {
	dealService  *services.DealService
	stageService *services.StageService
}

func NewDealHandler(dealService *services.DealService, stageService *services.StageService) *DealHandler {
	return &DealHandler{dealService: dealService, stageService: stageService}
}

// writeServiceError maps the service failure kinds to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, models.ErrPreconditionFailed):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *DealHandler) CreateDeal(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name        string              `json:"name"`
		Category    models.DealCategory `json:"category"`
		ClientName  string              `json:"clientName"`
		OwnerName   string              `json:"ownerName"`
		PropertyRef string              `json:"propertyRef"`
		ProjectID   string              `json:"projectId"`
		StartDate   time.Time           `json:"startDate"`
		EndDate     time.Time           `json:"endDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	projectID, err := primitive.ObjectIDFromHex(request.ProjectID)
	if err != nil {
		http.Error(w, "Invalid project ID format", http.StatusBadRequest)
		return
	}

	deal, err := h.dealService.CreateDeal(r.Context(), services.CreateDealOptions{
		Name:        request.Name,
		Category:    request.Category,
		ClientName:  request.ClientName,
		OwnerName:   request.OwnerName,
		PropertyRef: request.PropertyRef,
		ProjectID:   projectID,
		StartDate:   request.StartDate,
		EndDate:     request.EndDate,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deal)
}

func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dealID, err := primitive.ObjectIDFromHex(vars["dealId"])
	if err != nil {
		http.Error(w, "Invalid deal ID format", http.StatusBadRequest)
		return
	}

	deal, err := h.dealService.GetDeal(r.Context(), dealID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deal)
}

// CreateStagesForDeal instantiates the deal's stage workflow from the
// catalog. Rejected with a conflict when the deal already has stages.
func (h *DealHandler) CreateStagesForDeal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dealID, err := primitive.ObjectIDFromHex(vars["dealId"])
	if err != nil {
		http.Error(w, "Invalid deal ID format", http.StatusBadRequest)
		return
	}

	deal, err := h.dealService.GetDeal(r.Context(), dealID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	stages, err := h.stageService.CreateStagesForDeal(r.Context(), deal.ID, deal.Category)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(stages)
}

func (h *DealHandler) GetStagesForDeal(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dealID, err := primitive.ObjectIDFromHex(vars["dealId"])
	if err != nil {
		http.Error(w, "Invalid deal ID format", http.StatusBadRequest)
		return
	}

	stages, err := h.stageService.ListStages(r.Context(), dealID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stages)
}

// GetSchedule returns the evenly distributed default dates for the deal's
// stages. Display aid only; explicitly set estimated dates take precedence
// on the stage records themselves.
func (h *DealHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	dealID, err := primitive.ObjectIDFromHex(vars["dealId"])
	if err != nil {
		http.Error(w, "Invalid deal ID format", http.StatusBadRequest)
		return
	}

	deal, err := h.dealService.GetDeal(r.Context(), dealID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	stages, err := h.stageService.ListStages(r.Context(), dealID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	dates := services.EstimateStageDates(deal.StartDate, deal.EndDate, len(stages))
	schedule := make([]map[string]interface{}, len(stages))
	for i, stage := range stages {
		date := dates[i]
		if stage.EstimatedDate != nil {
			date = *stage.EstimatedDate
		}
		schedule[i] = map[string]interface{}{
			"stageId":       stage.ID,
			"name":          stage.Name,
			"order":         stage.Order,
			"estimatedDate": date,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(schedule)
}
