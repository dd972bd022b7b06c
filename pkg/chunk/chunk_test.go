package chunk

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchesCoversInputInOrder(t *testing.T) {
	for _, n := range []int{0, 1, 9, 10, 11, 25, 100} {
		for _, size := range []int{1, 3, 10} {
			ids := make([]string, n)
			for i := range ids {
				ids[i] = fmt.Sprintf("id-%03d", i)
			}

			batches := Batches(ids, size)

			var flat []string
			for _, b := range batches {
				require.NotEmpty(t, b)
				require.LessOrEqual(t, len(b), size)
				flat = append(flat, b...)
			}
			if n == 0 {
				assert.Empty(t, flat, "n=%d size=%d", n, size)
			} else {
				assert.Equal(t, ids, flat, "n=%d size=%d", n, size)
			}
		}
	}
}

func TestBatchesEmptyInput(t *testing.T) {
	assert.Nil(t, Batches(nil, 10))
	assert.Nil(t, Batches([]string{}, 10))
}

func TestBatchesDefaultsToMaxIn(t *testing.T) {
	ids := make([]string, 23)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}

	batches := Batches(ids, 0)

	require.Len(t, batches, 3)
	assert.Len(t, batches[0], MaxIn)
	assert.Len(t, batches[1], MaxIn)
	assert.Len(t, batches[2], 3)
}

func TestDeduped(t *testing.T) {
	in := []string{"a", "b", "", "a", "c", "b"}
	assert.Equal(t, []string{"a", "b", "c"}, Deduped(in))
	assert.Empty(t, Deduped(nil))
}
