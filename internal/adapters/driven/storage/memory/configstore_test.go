package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Seeded(t *testing.T) {
	seed := map[string]any{"llm.provider": "ollama"}

	store := NewConfigStore(seed, map[string]any{"scoring.top_k": 4})
	seed["llm.provider"] = "openai"

	assert.Equal(t, "ollama", store.GetString("llm.provider"), "seed map is copied")
	assert.Equal(t, 4, store.GetInt("scoring.top_k"))
	assert.Equal(t, ":memory:", store.Path())
}

func TestConfigStore_TypedGetters(t *testing.T) {
	store := NewConfigStore(map[string]any{
		"s":       "text",
		"i":       7,
		"i64":     int64(9),
		"whole":   3.0,
		"frac":    0.72,
		"b":       true,
		"numeric": "0.6",
	})
	float := func(key string) any {
		v, ok := store.GetFloat(key)
		if !ok {
			return "missing"
		}
		return v
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{name: "string", got: store.GetString("s"), want: "text"},
		{name: "string wrong type", got: store.GetString("i"), want: ""},
		{name: "int", got: store.GetInt("i"), want: 7},
		{name: "int64", got: store.GetInt("i64"), want: 9},
		{name: "whole float", got: store.GetInt("whole"), want: 3},
		{name: "fractional float", got: store.GetInt("frac"), want: 0},
		{name: "int missing", got: store.GetInt("missing"), want: 0},
		{name: "bool", got: store.GetBool("b"), want: true},
		{name: "bool wrong type", got: store.GetBool("s"), want: false},
		{name: "float", got: float("frac"), want: 0.72},
		{name: "float from int", got: float("i"), want: 7.0},
		{name: "float from int64", got: float("i64"), want: 9.0},
		{name: "float from string", got: float("numeric"), want: 0.6},
		{name: "float not numeric", got: float("s"), want: "missing"},
		{name: "float missing", got: float("missing"), want: "missing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestConfigStore_SetSaveLoad(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("scoring.sim_high", 0.8))
	require.NoError(t, store.Set("scoring.sim_high", 0.75))
	require.NoError(t, store.Save())
	require.NoError(t, store.Load())

	v, ok := store.Get("scoring.sim_high")
	assert.True(t, ok)
	assert.Equal(t, 0.75, v)
	assert.Equal(t, 1, store.Saves())
}

func TestConfigStore_SetMany(t *testing.T) {
	store := NewConfigStore(map[string]any{"scoring.top_k": 3})

	require.NoError(t, store.SetMany(map[string]any{"scoring.top_k": 4, "scoring.fast_mode": true}))

	assert.Equal(t, 4, store.GetInt("scoring.top_k"))
	assert.True(t, store.GetBool("scoring.fast_mode"))
	assert.Zero(t, store.Saves(), "SetMany is not a Save call")
}

func TestConfigStore_Concurrency(t *testing.T) {
	store := NewConfigStore()

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set("workers", i)
			_ = store.GetInt("workers")
			_ = store.Save()
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, store.Saves())
}
