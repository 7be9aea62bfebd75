package services

import (
	"testing"
	"time"

	"estate-crm/microservices/deals-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateStagesForDealRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		category models.DealCategory
		count    int
	}{
		{models.CategoryResidentialRental, 7},
		{models.CategoryCommercialRental, 8},
	} {
		env := newTestEnv(t)
		deal := env.createDeal(t, tc.category)

		stages := env.listStages(t, deal)
		require.Len(t, stages, tc.count)
		for i, stage := range stages {
			assert.Equal(t, i+1, stage.Order)
			if i == 0 {
				assert.Equal(t, models.StageInProgress, stage.Status)
			} else {
				assert.Equal(t, models.StagePending, stage.Status)
			}
			assert.Equal(t, models.PriorityMedium, stage.Priority)
			assert.Nil(t, stage.ActualDate)
		}
	}
}

func TestCreateStagesForDealGuardsAgainstDuplicates(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)

	_, err := env.stageService.CreateStagesForDeal(env.ctx, deal.ID, deal.Category)
	assert.ErrorIs(t, err, models.ErrPreconditionFailed)
}

func TestCreateStagesForDealRejectsUnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.stageService.CreateStagesForDeal(env.ctx, primitive.NewObjectID(), "timeshare")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAdvanceStageActivatesNext(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)
	stages := env.listStages(t, deal)

	completed, err := env.stageService.AdvanceStage(env.ctx, stages[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StageCompleted, completed.Status)
	require.NotNil(t, completed.ActualDate)
	assert.Equal(t, env.now, *completed.ActualDate)

	stages = env.listStages(t, deal)
	assert.Equal(t, models.StageCompleted, stages[0].Status)
	assert.Equal(t, models.StageInProgress, stages[1].Status)

	// at most one stage in progress
	inProgress := 0
	for _, stage := range stages {
		if stage.Status == models.StageInProgress {
			inProgress++
		}
	}
	assert.Equal(t, 1, inProgress)
}

func TestAdvanceStageIsIdempotentUnderRetry(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)
	stages := env.listStages(t, deal)

	_, err := env.stageService.AdvanceStage(env.ctx, stages[0].ID)
	require.NoError(t, err)

	_, err = env.stageService.AdvanceStage(env.ctx, stages[0].ID)
	assert.ErrorIs(t, err, models.ErrPreconditionFailed)

	// the retry must not have double-advanced the workflow
	stages = env.listStages(t, deal)
	assert.Equal(t, models.StageInProgress, stages[1].Status)
	assert.Equal(t, models.StagePending, stages[2].Status)
}

func TestAdvanceStageRejectsPendingStage(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)
	stages := env.listStages(t, deal)

	_, err := env.stageService.AdvanceStage(env.ctx, stages[3].ID)
	assert.ErrorIs(t, err, models.ErrPreconditionFailed)
}

func TestAdvanceStageHopsOverSkippedStages(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)
	stages := env.listStages(t, deal)

	// stage 2 was skipped by external data; it counts as finished
	env.store.stages[stages[1].ID].Status = models.StageSkipped

	_, err := env.stageService.AdvanceStage(env.ctx, stages[0].ID)
	require.NoError(t, err)

	stages = env.listStages(t, deal)
	assert.Equal(t, models.StageSkipped, stages[1].Status)
	assert.Equal(t, models.StageInProgress, stages[2].Status)
}

func TestAdvanceStageNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.stageService.AdvanceStage(env.ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUpdateStageMetadataLeavesStatusAlone(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)
	stages := env.listStages(t, deal)

	priority := models.PriorityUrgent
	comment := "waiting on signed agreement"
	date := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	err := env.stageService.UpdateStageMetadata(env.ctx, stages[2].ID, models.StageMetadataUpdate{
		EstimatedDate: &date,
		Priority:      &priority,
		Comment:       &comment,
		Attachments:   []string{"agreement-draft.pdf"},
	})
	require.NoError(t, err)

	updated := env.listStages(t, deal)[2]
	assert.Equal(t, models.StagePending, updated.Status)
	assert.Nil(t, updated.ActualDate)
	assert.Equal(t, models.PriorityUrgent, updated.Priority)
	assert.Equal(t, comment, updated.Comment)
	require.NotNil(t, updated.EstimatedDate)
	assert.Equal(t, date, *updated.EstimatedDate)
	assert.Equal(t, []string{"agreement-draft.pdf"}, updated.Attachments)
}

func TestUpdateStageMetadataRejectsUnknownPriority(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)
	stages := env.listStages(t, deal)

	bad := models.Priority("extreme")
	err := env.stageService.UpdateStageMetadata(env.ctx, stages[0].ID, models.StageMetadataUpdate{Priority: &bad})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestSetStageDate(t *testing.T) {
	env := newTestEnv(t)
	deal := env.createDeal(t, models.CategoryResidentialRental)
	stages := env.listStages(t, deal)

	date := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.stageService.SetStageDate(env.ctx, stages[1].ID, date))

	updated := env.listStages(t, deal)[1]
	require.NotNil(t, updated.EstimatedDate)
	assert.Equal(t, date, *updated.EstimatedDate)

	err := env.stageService.SetStageDate(env.ctx, stages[1].ID, time.Time{})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEstimateStageDates(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	dates := EstimateStageDates(start, end, 7)
	require.Len(t, dates, 7)
	assert.Equal(t, start, dates[0])
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), dates[3])

	// uneven span rounds the per-stage spacing up
	end = time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC) // 10 days over 4 stages
	dates = EstimateStageDates(start, end, 4)
	require.Len(t, dates, 4)
	assert.Equal(t, time.Date(2024, 1, 4, 0, 0, 0, 0, time.UTC), dates[1])
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), dates[3])

	assert.Nil(t, EstimateStageDates(start, end, 0))
}
