package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"estate-crm/microservices/deals-service/models"
	"estate-crm/microservices/deals-service/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StageHandler struct {
	stageService      *services.StageService
	assignmentService *services.AssignmentService
	dealService       *services.DealService
}

func NewStageHandler(stageService *services.StageService, assignmentService *services.AssignmentService, dealService *services.DealService) *StageHandler {
	return &StageHandler{
		stageService:      stageService,
		assignmentService: assignmentService,
		dealService:       dealService,
	}
}

func stageIDFromRequest(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	vars := mux.Vars(r)
	stageID, err := primitive.ObjectIDFromHex(vars["stageId"])
	if err != nil {
		http.Error(w, "Invalid stage ID format", http.StatusBadRequest)
		return primitive.NilObjectID, false
	}
	return stageID, true
}

func (h *StageHandler) UpdateStageMetadata(w http.ResponseWriter, r *http.Request) {
	stageID, ok := stageIDFromRequest(w, r)
	if !ok {
		return
	}

	var update models.StageMetadataUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.stageService.UpdateStageMetadata(r.Context(), stageID, update); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Stage updated successfully"}`))
}

func (h *StageHandler) SetStageDate(w http.ResponseWriter, r *http.Request) {
	stageID, ok := stageIDFromRequest(w, r)
	if !ok {
		return
	}

	var request struct {
		EstimatedDate time.Time `json:"estimatedDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	if err := h.stageService.SetStageDate(r.Context(), stageID, request.EstimatedDate); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Stage date updated successfully"}`))
}

func (h *StageHandler) AssignMembers(w http.ResponseWriter, r *http.Request) {
	stageID, ok := stageIDFromRequest(w, r)
	if !ok {
		return
	}

	var request struct {
		MemberIDs   []string        `json:"memberIds"`
		Priority    models.Priority `json:"priority"`
		DueDate     *time.Time      `json:"dueDate,omitempty"`
		Attachments []string        `json:"attachments,omitempty"`
		Comment     string          `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	memberIDs := make([]primitive.ObjectID, 0, len(request.MemberIDs))
	for _, raw := range request.MemberIDs {
		memberID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			http.Error(w, "Invalid member ID format", http.StatusBadRequest)
			return
		}
		memberIDs = append(memberIDs, memberID)
	}

	err := h.assignmentService.AssignMembers(r.Context(), stageID, memberIDs, services.AssignmentOptions{
		Priority:    request.Priority,
		DueDate:     request.DueDate,
		Attachments: request.Attachments,
		Comment:     request.Comment,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "Members assigned successfully"}`))
}

func (h *StageHandler) MarkStageComplete(w http.ResponseWriter, r *http.Request) {
	stageID, ok := stageIDFromRequest(w, r)
	if !ok {
		return
	}

	stage, err := h.dealService.MarkStageComplete(r.Context(), stageID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stage)
}
