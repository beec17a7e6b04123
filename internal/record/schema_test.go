package record_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/offers-tracker/internal/record"
)

func TestValidate(t *testing.T) {
	rec := record.NewBuilder("a.pdf").Set(record.Name, "Jan Novák").Build()
	assert.NoError(t, record.Validate(rec))
	assert.NoError(t, record.Validate(record.Record{}))
}

func TestValidateJSON(t *testing.T) {
	full := record.NewBuilder("a.pdf").Build().Map()

	t.Run("missing_key", func(t *testing.T) {
		m := copyMap(full)
		delete(m, record.Plate.Header())
		assert.Error(t, record.ValidateJSON(mustJSON(t, m)))
	})

	t.Run("unknown_key", func(t *testing.T) {
		m := copyMap(full)
		m["Poznámka"] = "x"
		assert.Error(t, record.ValidateJSON(mustJSON(t, m)))
	})

	t.Run("non_string_value", func(t *testing.T) {
		m := map[string]any{}
		for k, v := range full {
			m[k] = v
		}
		m[record.Premium.Header()] = 12345
		assert.Error(t, record.ValidateJSON(mustJSON(t, m)))
	})

	t.Run("not_json", func(t *testing.T) {
		assert.Error(t, record.ValidateJSON([]byte("{")))
	})
}

func TestBuildJSONSchema(t *testing.T) {
	s := record.BuildJSONSchema()
	assert.Equal(t, "object", s["type"])
	assert.Len(t, s["required"], 31)
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
