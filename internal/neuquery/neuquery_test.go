package neuquery

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryContextTimeout(t *testing.T) {
	t.Parallel()

	bounded := &Store{timeout: 5 * time.Second}
	ctx, cancel := bounded.queryContext(context.Background())
	defer cancel()
	deadline, ok := ctx.Deadline()
	require.True(t, ok, "configured timeout should set a deadline")
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)

	unbounded := &Store{}
	ctx, cancel = unbounded.queryContext(context.Background())
	defer cancel()
	_, ok = ctx.Deadline()
	assert.False(t, ok, "zero timeout should leave the context unbounded")
}

func validRow() map[string]any {
	return map[string]any{
		"region":   "ME",
		"side":     "R",
		"hex1":     int64(27),
		"hex2":     int64(11),
		"synapses": 120.5,
		"cells":    int64(4),
		"layers": []any{
			map[string]any{"index": int64(1), "synapses": 80.5, "cells": int64(3), "value": 2.1},
			map[string]any{"index": int64(2), "synapses": int64(40), "cells": int64(1), "value": 0.9},
		},
	}
}

func TestRecordFromRow(t *testing.T) {
	t.Parallel()

	rec, err := recordFromRow("Tm1", validRow())
	require.NoError(t, err)

	assert.Equal(t, "Tm1", rec.Entity)
	assert.Equal(t, "ME", rec.Region)
	assert.Equal(t, "R", rec.SideTag)
	assert.Equal(t, 27, rec.Hex1)
	assert.Equal(t, 11, rec.Hex2)
	assert.Equal(t, 120.5, rec.Synapses)
	assert.Equal(t, 4.0, rec.Cells)

	require.Len(t, rec.Layers, 2)
	assert.Equal(t, 1, rec.Layers[0].Index)
	assert.Equal(t, 80.5, rec.Layers[0].Synapses)
	assert.Equal(t, 0.9, rec.Layers[1].Value)
}

func TestRecordFromRowNoLayers(t *testing.T) {
	t.Parallel()

	row := validRow()
	row["layers"] = nil

	rec, err := recordFromRow("Tm1", row)
	require.NoError(t, err)
	assert.Nil(t, rec.Layers)
}

func TestRecordFromRowRejectsFloatHexIndex(t *testing.T) {
	t.Parallel()

	row := validRow()
	row["hex1"] = 27.0

	_, err := recordFromRow("Tm1", row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "hex1")
	assert.Contains(t, err.Error(), "want integer")
}

func TestRecordFromRowMissingFields(t *testing.T) {
	t.Parallel()

	for _, field := range []string{"region", "side", "hex1", "hex2", "synapses", "cells"} {
		row := validRow()
		delete(row, field)

		_, err := recordFromRow("Tm1", row)
		require.Error(t, err, "expected error with %s missing", field)
		assert.Contains(t, err.Error(), field)
	}
}

func TestRecordFromRowBadLayerEntry(t *testing.T) {
	t.Parallel()

	row := validRow()
	row["layers"] = []any{"not a map"}
	_, err := recordFromRow("Tm1", row)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "layers[0]"), "error %q should name the bad entry", err)

	row = validRow()
	row["layers"] = []any{map[string]any{"index": int64(1)}}
	_, err = recordFromRow("Tm1", row)
	require.Error(t, err)
}

func TestCypherOrdersDeterministically(t *testing.T) {
	t.Parallel()

	// Panel output ordering depends on the query ordering its rows.
	assert.Contains(t, entityColumnsCypher, "ORDER BY region, side, hex1, hex2")
	assert.Contains(t, entitiesCypher, "ORDER BY type")
}
