// Package chunk splits id sets into batches small enough for the
// document store's membership-query operators ($in and friends), which
// accept at most MaxIn values per call.
package chunk

// MaxIn is the store-imposed ceiling on values per membership query.
const MaxIn = 10

// Batches splits ids into ordered batches of at most size elements.
// Concatenating the result reproduces the input; no batch is empty.
// A size of zero or less falls back to MaxIn.
func Batches(ids []string, size int) [][]string {
	if size <= 0 {
		size = MaxIn
	}
	if len(ids) == 0 {
		return nil
	}
	out := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[start:end])
	}
	return out
}

// Deduped returns ids with duplicates and empty strings removed,
// preserving first-seen order. Membership joins dedupe before batching
// so a repeated id never inflates a fan-out.
func Deduped(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
