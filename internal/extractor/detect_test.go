package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spice-ledger/internal/model"
)

func TestDetectFirstClaimantWins(t *testing.T) {
	a := newFake("A", "/d/x.ofx")
	b := newFake("B", "/d/x.ofx")

	got, err := Detect(context.Background(), model.NewDocument("/d/x.ofx"), []Extractor{a, b})
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Zero(t, b.identifyCalls())
}

func TestDetectNoClaimant(t *testing.T) {
	a := newFake("A")
	b := newFake("B")

	got, err := Detect(context.Background(), model.NewDocument("/d/x.ofx"), []Extractor{a, b})
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 1, a.identifyCalls())
	assert.Equal(t, 1, b.identifyCalls())
}

func TestDetectProbeFailure(t *testing.T) {
	a := newFake("A")
	a.probeErr["/d/x.ofx"] = errProbe
	b := newFake("B", "/d/x.ofx")

	got, err := Detect(context.Background(), model.NewDocument("/d/x.ofx"), []Extractor{a, b})
	require.Error(t, err)
	assert.Nil(t, got)

	var classErr *ClassificationError
	require.ErrorAs(t, err, &classErr)
	assert.Equal(t, "A", classErr.Extractor)
	assert.Equal(t, "/d/x.ofx", classErr.Document.Path)
	assert.ErrorIs(t, err, ErrClassification)
	assert.ErrorIs(t, err, errProbe)
	assert.Zero(t, b.identifyCalls())
}

func TestDetectCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Detect(ctx, model.NewDocument("/d/x.ofx"), []Extractor{newFake("A")})
	assert.True(t, errors.Is(err, context.Canceled))
}
