package device

import "context"

// Stats summarises the inventory.
type Stats struct {
	Total   int64                 `json:"total"`
	ByState map[DeviceState]int64 `json:"by_state"`
}

// Stats counts all devices and the devices in each state.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.store.CountAll(ctx)
	if err != nil {
		return Stats{}, transient(err)
	}

	stats := Stats{Total: total, ByState: make(map[DeviceState]int64, len(AllStates()))}
	for _, state := range AllStates() {
		n, err := s.store.CountByState(ctx, state)
		if err != nil {
			return Stats{}, transient(err)
		}
		stats.ByState[state] = n
	}
	return stats, nil
}
