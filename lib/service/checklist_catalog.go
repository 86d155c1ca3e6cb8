package service

import (
	"context"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"

	"apar/lib/data"
	"apar/lib/models"
)

// ChecklistCatalog caches checklist templates per equipment type. Templates
// change rarely and every lookup and submission needs one.
type ChecklistCatalog struct {
	Repo  data.EquipmentRepository
	cache *cache.Cache
}

func NewChecklistCatalog(repo data.EquipmentRepository, ttl time.Duration) *ChecklistCatalog {
	return &ChecklistCatalog{
		Repo:  repo,
		cache: cache.New(ttl, 2*ttl),
	}
}

// Items returns the checklist template of an equipment type
func (c *ChecklistCatalog) Items(ctx context.Context, typeID int64) ([]models.ChecklistItem, error) {
	key := strconv.FormatInt(typeID, 10)
	if cached, ok := c.cache.Get(key); ok {
		return cached.([]models.ChecklistItem), nil
	}

	items, err := c.Repo.GetChecklistItems(ctx, typeID)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, items)
	return items, nil
}
