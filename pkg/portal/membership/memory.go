package membership

import (
	"context"
	"sync"

	"github.com/clientgate/clientgate/pkg/kernel"
)

// MemorySelectionStore keeps active-company selections in process memory.
// Losing them on restart is harmless; customers just fall back to the
// default company.
type MemorySelectionStore struct {
	mu         sync.RWMutex
	selections map[kernel.CustomerID]kernel.CompanyID
}

func NewMemorySelectionStore() *MemorySelectionStore {
	return &MemorySelectionStore{selections: make(map[kernel.CustomerID]kernel.CompanyID)}
}

func (s *MemorySelectionStore) GetSelection(ctx context.Context, customerID kernel.CustomerID) (kernel.CompanyID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selections[customerID], nil
}

func (s *MemorySelectionStore) SaveSelection(ctx context.Context, customerID kernel.CustomerID, companyID kernel.CompanyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selections[customerID] = companyID
	return nil
}
