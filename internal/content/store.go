package content

import (
	"gorm.io/gorm"
)

// ContentStore resolves the ordered unified content of one module.
type ContentStore interface {
	Resolve(moduleID uint) ([]UnifiedContent, error)
}

// FallbackStore tries the primary store and defers to the secondary only
// when the primary resolves to an empty list. This is the single place the
// new-schema/legacy-schema precedence lives; callers cannot tell which
// store produced the result.
type FallbackStore struct {
	Primary   ContentStore
	Secondary ContentStore
}

func NewFallbackStore(primary, secondary ContentStore) *FallbackStore {
	return &FallbackStore{Primary: primary, Secondary: secondary}
}

func (s *FallbackStore) Resolve(moduleID uint) ([]UnifiedContent, error) {
	items, err := s.Primary.Resolve(moduleID)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		return items, nil
	}
	return s.Secondary.Resolve(moduleID)
}

// NewResolver wires the default composition: normalized schema first,
// legacy single-table schema when the module has no new-schema rows.
func NewResolver(db *gorm.DB) ContentStore {
	return NewFallbackStore(NewNormalizedStore(db), NewLegacyStore(db))
}
