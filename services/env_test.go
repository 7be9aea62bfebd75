package services

import (
	"context"
	"testing"
	"time"

	"estate-crm/microservices/deals-service/models"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testEnv struct {
	store             *memStore
	stageService      *StageService
	assignmentService *AssignmentService
	completionService *CompletionService
	dealService       *DealService
	ctx               context.Context
	now               time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemStore()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	stageService := NewStageService(store)
	stageService.Now = func() time.Time { return now }

	assignmentService := NewAssignmentService(store, store, store, store, store)
	assignmentService.Now = func() time.Time { return now }

	completionService := NewCompletionService(stageService, store)
	dealService := NewDealService(store, store, store, stageService, completionService)

	return &testEnv{
		store:             store,
		stageService:      stageService,
		assignmentService: assignmentService,
		completionService: completionService,
		dealService:       dealService,
		ctx:               context.Background(),
		now:               now,
	}
}

func (e *testEnv) createDeal(t *testing.T, category models.DealCategory) *models.Deal {
	t.Helper()
	deal, err := e.dealService.CreateDeal(e.ctx, CreateDealOptions{
		Name:        "Riverside apartment",
		Category:    category,
		ClientName:  "Ana Petrov",
		OwnerName:   "Marko Ilic",
		PropertyRef: "RIV-204",
		ProjectID:   primitive.NewObjectID(),
		StartDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return deal
}

func (e *testEnv) listStages(t *testing.T, deal *models.Deal) []models.Stage {
	t.Helper()
	stages, err := e.stageService.ListStages(e.ctx, deal.ID)
	require.NoError(t, err)
	return stages
}
