package invertor_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/invertor"
)

func TestRunBatch(t *testing.T) {
	t.Parallel()

	bad := sphereConfig()
	bad.NTerms = 0
	items := []invertor.BatchItem{
		{Name: "a", Measurement: sphereMeasurement(t, 1), Config: sphereConfig()},
		{Name: "bad", Measurement: sphereMeasurement(t, 2), Config: bad},
		{Name: "c", Measurement: sphereMeasurement(t, 3), Config: sphereConfig()},
	}

	for _, workers := range []int{0, 1, 2} {
		res, err := invertor.RunBatch(context.Background(), items, workers)
		require.NoError(t, err)
		require.Len(t, res, len(items))

		for i, r := range res {
			assert.Equal(t, items[i].Name, r.Name, "results keep item order")
		}
		assert.ErrorIs(t, res[1].Err, core.ErrConfig)
		assert.Nil(t, res[1].Solution)
		for _, i := range []int{0, 2} {
			require.NoError(t, res[i].Err)
			require.NotNil(t, res[i].Solution)
			assert.InEpsilon(t, sphere.Rg(), res[i].Diagnostics.Rg, 2e-2)
		}
	}
}

func TestRunBatch_Empty(t *testing.T) {
	t.Parallel()

	res, err := invertor.RunBatch(context.Background(), nil, 4)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestRunBatch_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	items := []invertor.BatchItem{{Name: "a", Measurement: sphereMeasurement(t, 1), Config: sphereConfig()}}

	_, err := invertor.RunBatch(ctx, items, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
