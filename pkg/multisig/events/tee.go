package events

import "context"

// Tee returns a Sink that appends every batch to each sink in order and
// stops at the first failure. Sinks before the failing one keep the batch.
func Tee(sinks ...Sink) Sink {
	return tee(append([]Sink(nil), sinks...))
}

type tee []Sink

func (t tee) Append(ctx context.Context, batch ...Event) error {
	for _, s := range t {
		if err := s.Append(ctx, batch...); err != nil {
			return err
		}
	}
	return nil
}
