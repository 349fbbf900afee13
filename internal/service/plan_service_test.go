package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-score-portal/internal/dto"
	"github.com/noah-isme/sma-score-portal/internal/models"
	appErrors "github.com/noah-isme/sma-score-portal/pkg/errors"
)

func TestPlanServiceLoadFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()

	t.Run("missing document", func(t *testing.T) {
		svc := NewPlanService(newDocumentStore(), nil, nil)
		assert.Equal(t, models.DefaultPlanConfig(), svc.Load(ctx))
	})

	t.Run("store error", func(t *testing.T) {
		docs := newDocumentStore()
		docs.getErr = errors.New("connection refused")
		svc := NewPlanService(docs, nil, nil)
		assert.Equal(t, models.DefaultPlanConfig(), svc.Load(ctx))
	})

	t.Run("plan without subjects", func(t *testing.T) {
		docs := newDocumentStore()
		docs.docs[models.DocumentPlanConfig] = []byte(`{"ISMT":{"label":"Science","subjects":[]}}`)
		svc := NewPlanService(docs, nil, nil)
		assert.Equal(t, models.DefaultPlanConfig(), svc.Load(ctx))
	})

	t.Run("subject without key", func(t *testing.T) {
		docs := newDocumentStore()
		docs.docs[models.DocumentPlanConfig] = []byte(`{"ISMT":{"label":"Science","subjects":[{"key":"","label":"Math","fullMark":40}]}}`)
		svc := NewPlanService(docs, nil, nil)
		assert.Equal(t, models.DefaultPlanConfig(), svc.Load(ctx))
	})
}

func TestPlanServiceLoadReplacesDefaultsWholesale(t *testing.T) {
	docs := newDocumentStore()
	docs.docs[models.DocumentPlanConfig] = []byte(`{"GIFT":{"label":"Gifted","subjects":[{"key":"logic","label":"Logic","fullMark":100}]}}`)
	svc := NewPlanService(docs, nil, nil)

	cfg := svc.Load(context.Background())
	assert.Equal(t, []string{"GIFT"}, cfg.PlanKeys())
	assert.False(t, cfg.HasPlan("ISMT"))
	assert.Equal(t, 100.0, cfg.FullMark("GIFT"))
}

func TestPlanServiceSave(t *testing.T) {
	docs := newDocumentStore()
	svc := NewPlanService(docs, nil, nil)

	resp, err := svc.Save(context.Background(), dto.PlanConfigRequest{Plans: []dto.PlanPayload{
		{Key: " GIFT ", Label: "Gifted", Subjects: []dto.PlanSubjectPayload{{Key: "logic", Label: "Logic", FullMark: 100}}},
		{Key: "ARTS", Label: "", Subjects: []dto.PlanSubjectPayload{{Key: "drawing", Label: "Drawing", FullMark: 50}}},
	}})
	require.NoError(t, err)
	require.Len(t, resp.Plans, 2)
	assert.Equal(t, "GIFT", resp.Plans[0].Key)
	assert.Equal(t, "ARTS", resp.Plans[1].Label)

	loaded := svc.Load(context.Background())
	assert.Equal(t, []string{"GIFT", "ARTS"}, loaded.PlanKeys())
}

func TestPlanServiceSaveRejectsInvalidConfig(t *testing.T) {
	cases := map[string]dto.PlanConfigRequest{
		"no plans": {},
		"zero full mark": {Plans: []dto.PlanPayload{
			{Key: "GIFT", Subjects: []dto.PlanSubjectPayload{{Key: "logic", Label: "Logic", FullMark: 0}}},
		}},
		"duplicate plan": {Plans: []dto.PlanPayload{
			{Key: "GIFT", Subjects: []dto.PlanSubjectPayload{{Key: "logic", Label: "Logic", FullMark: 10}}},
			{Key: "GIFT", Subjects: []dto.PlanSubjectPayload{{Key: "logic", Label: "Logic", FullMark: 10}}},
		}},
		"duplicate subject": {Plans: []dto.PlanPayload{
			{Key: "GIFT", Subjects: []dto.PlanSubjectPayload{
				{Key: "logic", Label: "Logic", FullMark: 10},
				{Key: "logic", Label: "Logic again", FullMark: 10},
			}},
		}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			docs := newDocumentStore()
			svc := NewPlanService(docs, nil, nil)
			_, err := svc.Save(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.NotContains(t, docs.docs, models.DocumentPlanConfig)
		})
	}
}

func TestPlanServiceSaveStoreError(t *testing.T) {
	docs := newDocumentStore()
	docs.putErr = errors.New("disk full")
	svc := NewPlanService(docs, nil, nil)

	_, err := svc.Save(context.Background(), dto.PlanConfigRequest{Plans: []dto.PlanPayload{
		{Key: "GIFT", Subjects: []dto.PlanSubjectPayload{{Key: "logic", Label: "Logic", FullMark: 10}}},
	}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestPlanServiceGetUsesKeyAsMissingLabel(t *testing.T) {
	docs := newDocumentStore()
	docs.docs[models.DocumentPlanConfig] = []byte(`{"GIFT":{"label":"","subjects":[{"key":"logic","label":"Logic","fullMark":100}]}}`)
	svc := NewPlanService(docs, nil, nil)

	resp := svc.Get(context.Background())
	require.Len(t, resp.Plans, 1)
	assert.Equal(t, "GIFT", resp.Plans[0].Label)
}
