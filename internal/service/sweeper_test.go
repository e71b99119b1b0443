package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/SergeiKhy/gated-shortener/internal/models"
	"github.com/SergeiKhy/gated-shortener/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestSweeper_RunOnce(t *testing.T) {
	env := setupTestService()
	env.repo.Seed(&models.Link{Slug: "dead", URL: "https://example.com", CreatedAt: testNow, ExpiresAt: timePtr(testNow.Add(-time.Second))})
	env.repo.Seed(&models.Link{Slug: "alive", URL: "https://example.com", CreatedAt: testNow})

	sweeper := service.NewSweeper(env.links, time.Hour, time.Second, zap.NewNop())

	assert.Equal(t, 1, sweeper.RunOnce(context.Background()))
	assert.Nil(t, env.repo.Stored("dead"))
	assert.NotNil(t, env.repo.Stored("alive"))

	env.repo.ListErr = errors.New("boom")
	assert.Zero(t, sweeper.RunOnce(context.Background()))
}

// TestSweeper_StartStop проверяет, что фоновый цикл удаляет записи и корректно останавливается
func TestSweeper_StartStop(t *testing.T) {
	env := setupTestService()
	env.repo.Seed(&models.Link{Slug: "used", URL: "https://example.com", CreatedAt: testNow, MaxVisits: intPtr(1), Visits: 1})

	sweeper := service.NewSweeper(env.links, 10*time.Millisecond, time.Second, zap.NewNop())
	sweeper.Start()

	assert.Eventually(t, func() bool {
		return env.repo.Stored("used") == nil
	}, 2*time.Second, 10*time.Millisecond)

	sweeper.Stop()
	sweeper.Stop()
}
