// Package stream defines gocork's STREAM component (spec.md §4.5): a
// capability interface for consuming chunk-oriented binary input.
package stream

import "github.com/libcork/go-cork/slice"

// Consumer receives successive chunks of a stream episode. Data is called
// for each chunk in order, with isFirst true exactly on the first chunk of
// an episode (spec.md §3/§4.5); EOF is called at most once, strictly after
// the last Data call; Close releases the consumer itself.
type Consumer interface {
	// Data processes the next chunk. Implementations must treat
	// isFirst == true as "reset accumulated state." Returning a
	// non-nil error stops the producer.
	Data(chunk *slice.Slice, isFirst bool) error
	// EOF is called after the last Data call in an episode.
	EOF() error
	// Close releases the consumer itself.
	Close()
}

// Feed drives consumer with the chunks in episode, in order, stopping at
// the first error — the producer-side contract implied by spec.md §4.5
// ("producers must stop on the first non-success"). It is a convenience
// helper for callers that already have every chunk in hand; it is not part
// of the interface itself.
func Feed(consumer Consumer, episode []*slice.Slice) error {
	for i, chunk := range episode {
		if err := consumer.Data(chunk, i == 0); err != nil {
			return err
		}
	}
	return consumer.EOF()
}
