package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIngestor struct {
	setupErr error
	ingested []string
}

func (f *fakeIngestor) Setup(ctx context.Context) error { return f.setupErr }

func (f *fakeIngestor) IngestFile(ctx context.Context, location string) (int, error) {
	f.ingested = append(f.ingested, location)
	return 3, nil
}

func TestRunIngestsSource(t *testing.T) {
	ing := &fakeIngestor{}
	n, err := run(context.Background(), ing, "data/clinic_info.json")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"data/clinic_info.json"}, ing.ingested)
}

func TestRunRequiresSource(t *testing.T) {
	_, err := run(context.Background(), &fakeIngestor{}, " ")
	assert.Error(t, err)
}

func TestRunStopsOnSetupFailure(t *testing.T) {
	ing := &fakeIngestor{setupErr: errors.New("redis down")}
	_, err := run(context.Background(), ing, "data/clinic_info.json")
	assert.ErrorContains(t, err, "redis down")
	assert.Empty(t, ing.ingested)
}
