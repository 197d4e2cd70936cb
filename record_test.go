package cardgap_test

import (
	"encoding/json"
	"testing"

	"github.com/fwojciec/cardgap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModelRecord_MarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("encodes as single-key object", func(t *testing.T) {
		t.Parallel()

		rec := cardgap.ModelRecord{ID: "org/model", Headers: []string{"## Overview", "## License"}}

		data, err := json.Marshal(rec)

		require.NoError(t, err)
		assert.JSONEq(t, `{"org/model":["## Overview","## License"]}`, string(data))
	})

	t.Run("encodes nil headers as empty array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(&cardgap.ModelRecord{ID: "a"})

		require.NoError(t, err)
		assert.Equal(t, `{"a":[]}`, string(data))
	})
}

func TestModelRecord_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("decodes a snapshot array", func(t *testing.T) {
		t.Parallel()

		var recs []*cardgap.ModelRecord
		err := json.Unmarshal([]byte(`[{"a":["## Overview","## License"]},{"b":[]}]`), &recs)

		require.NoError(t, err)
		require.Len(t, recs, 2)
		assert.Equal(t, "a", recs[0].ID)
		assert.Equal(t, []string{"## Overview", "## License"}, recs[0].Headers)
		assert.Equal(t, "b", recs[1].ID)
		assert.Empty(t, recs[1].Headers)
		assert.False(t, recs[1].HasHeaders())
	})

	t.Run("rejects objects with several keys", func(t *testing.T) {
		t.Parallel()

		var rec cardgap.ModelRecord
		err := json.Unmarshal([]byte(`{"a":[],"b":[]}`), &rec)

		require.Error(t, err)
		assert.Equal(t, cardgap.EINVALID, cardgap.ErrorCode(err))
	})

	t.Run("rejects empty objects", func(t *testing.T) {
		t.Parallel()

		var rec cardgap.ModelRecord
		err := json.Unmarshal([]byte(`{}`), &rec)

		require.Error(t, err)
	})
}

func TestModelRecord_Validate(t *testing.T) {
	t.Parallel()

	assert.Error(t, (&cardgap.ModelRecord{}).Validate())
	assert.NoError(t, (&cardgap.ModelRecord{ID: "a"}).Validate())
}
