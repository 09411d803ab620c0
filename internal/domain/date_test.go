package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateJSON(t *testing.T) {
	var in struct {
		Start *Date `json:"start_date"`
		End   *Date `json:"end_date"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"start_date":"2023-06-20","end_date":null}`), &in))
	require.NotNil(t, in.Start)
	assert.Nil(t, in.End)
	assert.Equal(t, NewDate(2023, time.June, 20), *in.Start)

	out, err := json.Marshal(in.Start)
	require.NoError(t, err)
	assert.JSONEq(t, `"2023-06-20"`, string(out))

	var ts Date
	require.NoError(t, json.Unmarshal([]byte(`"2023-06-20T00:00:00Z"`), &ts))
	assert.Equal(t, "2023-06-20", ts.String())

	assert.Error(t, json.Unmarshal([]byte(`"20/06/2023"`), &ts))
}

func TestDateScan(t *testing.T) {
	var d Date
	require.NoError(t, d.Scan(time.Date(2024, 3, 1, 15, 4, 5, 0, time.FixedZone("KST", 9*3600))))
	assert.Equal(t, "2024-03-01", d.String())

	require.NoError(t, d.Scan([]byte("2024-11-30")))
	assert.Equal(t, "2024-11-30", d.String())

	assert.Error(t, d.Scan(42))

	v, err := NewDate(2024, time.January, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02", v)
}

func TestSyncPlan(t *testing.T) {
	plan := SyncPlan{
		NeedsInsert: []EventState{{Event: Event{ID: 1}}, {Event: Event{ID: 3}}},
		NeedsUpdate: []EventState{{Event: Event{ID: 2}}},
	}
	assert.False(t, plan.Empty())
	assert.Equal(t, []int64{1, 3}, plan.InsertIDs())
	assert.Equal(t, []int64{2}, plan.UpdateIDs())
	assert.True(t, SyncPlan{}.Empty())
}
