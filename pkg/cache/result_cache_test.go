package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"ielts_exam_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("IELTS_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IELTS_TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	c := NewResultCache(client, time.Minute)
	ref := model.ResultRef{Type: model.RefSession, ID: "cache-test-" + time.Now().Format("150405.000")}

	miss, err := c.Get(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, miss)

	reading := 7.5
	require.NoError(t, c.Set(ctx, &model.Result{RefType: ref.Type, RefID: ref.ID, ReadingBand: &reading, OverallBand: 7.5}))

	hit, err := c.Get(ctx, ref)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, 7.5, hit.OverallBand)
	require.NotNil(t, hit.ReadingBand)
	assert.Nil(t, hit.WritingBand)

	// Fill never replaces an entry written by Set
	older := &model.Result{RefType: ref.Type, RefID: ref.ID, OverallBand: 5.0}
	require.NoError(t, c.Fill(ctx, older))
	hit, err = c.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, 7.5, hit.OverallBand)

	require.NoError(t, c.Delete(ctx, ref))
	miss, err = c.Get(ctx, ref)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, c.Fill(ctx, older))
	hit, err = c.Get(ctx, ref)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.Equal(t, 5.0, hit.OverallBand)
	require.NoError(t, c.Delete(ctx, ref))
}
