package memstore

import (
	"context"
	"fmt"
	"time"

	"github.com/concordance/api/internal/database"
	"github.com/concordance/api/internal/model"
)

// PanelistStore is the in-memory panelist store
type PanelistStore struct {
	s *Store
}

// Create stores a new panelist and fills in its ID and timestamps
func (p *PanelistStore) Create(_ context.Context, panelist *model.Panelist) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.concordances[panelist.ConcordanceID]; !ok {
		return fmt.Errorf("%w: concordance %s", database.ErrNotFound, panelist.ConcordanceID)
	}
	if panelist.ID == "" {
		panelist.ID = p.s.nextID("panelist")
	} else if _, ok := p.s.panelists[panelist.ID]; ok {
		return fmt.Errorf("%w: panelist %s", database.ErrDuplicate, panelist.ID)
	}
	panelist.CreatedOn = p.s.now()
	panelist.UpdatedOn = panelist.CreatedOn
	p.s.panelists[panelist.ID] = clonePanelist(panelist)
	return nil
}

// GetByID retrieves a panelist by ID
func (p *PanelistStore) GetByID(_ context.Context, id string) (*model.Panelist, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	panelist, ok := p.s.panelists[id]
	if !ok {
		return nil, nil
	}
	return clonePanelist(panelist), nil
}

// ListByConcordance returns the panelists of a concordance in creation order
func (p *PanelistStore) ListByConcordance(_ context.Context, concordanceID string) ([]*model.Panelist, error) {
	p.s.mu.RLock()
	defer p.s.mu.RUnlock()

	out := []*model.Panelist{}
	for _, panelist := range p.s.panelists {
		if panelist.ConcordanceID == concordanceID {
			out = append(out, clonePanelist(panelist))
		}
	}
	sortByCreated(out, func(x *model.Panelist) time.Time { return x.CreatedOn }, func(x *model.Panelist) string { return x.ID })
	return out, nil
}

// AttachUser links a user account to a panelist that has none yet. It
// reports false when the panelist already has an account.
func (p *PanelistStore) AttachUser(_ context.Context, panelistID, userID string) (bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	panelist, ok := p.s.panelists[panelistID]
	if !ok {
		return false, fmt.Errorf("%w: panelist %s", database.ErrNotFound, panelistID)
	}
	if panelist.IsProvisioned() {
		return false, nil
	}
	id := userID
	panelist.UserID = &id
	panelist.UpdatedOn = p.s.now()
	return true, nil
}

// Delete removes a panelist
func (p *PanelistStore) Delete(_ context.Context, id string) error {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()

	if _, ok := p.s.panelists[id]; !ok {
		return fmt.Errorf("%w: panelist %s", database.ErrNotFound, id)
	}
	delete(p.s.panelists, id)
	return nil
}

func clonePanelist(p *model.Panelist) *model.Panelist {
	c := *p
	if p.UserID != nil {
		id := *p.UserID
		c.UserID = &id
	}
	return &c
}
