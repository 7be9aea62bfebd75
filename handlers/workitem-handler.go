package handlers

import (
	"encoding/json"
	"net/http"

	"estate-crm/microservices/deals-service/models"
	"estate-crm/microservices/deals-service/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkItemHandler struct {
	dealService *services.DealService
}

func NewWorkItemHandler(dealService *services.DealService) *WorkItemHandler {
	return &WorkItemHandler{dealService: dealService}
}

// ChangeWorkItemStatus persists a status change from an assignee and
// triggers the stage completion re-check in the same request.
func (h *WorkItemHandler) ChangeWorkItemStatus(w http.ResponseWriter, r *http.Request) {
	var request struct {
		WorkItemID string                `json:"workItemId"`
		Status     models.WorkItemStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	itemID, err := primitive.ObjectIDFromHex(request.WorkItemID)
	if err != nil {
		http.Error(w, "Invalid work item ID format", http.StatusBadRequest)
		return
	}

	if err := h.dealService.ChangeWorkItemStatus(r.Context(), itemID, request.Status); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Work item status updated successfully"}`))
}
