package queue

// Option applies a configuration option to the SaveQueue.
type Option func(*SaveQueue)

// WithCapacity sets how many save requests may wait before new ones are
// coalesced into those already pending.
func WithCapacity(capacity int) Option {
	return func(q *SaveQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}
