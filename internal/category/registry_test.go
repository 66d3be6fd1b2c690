package category

import (
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"

	"listing_intake/internal/domain"
)

func TestRegistry_CoversEveryCategory(t *testing.T) {
	for _, c := range domain.Categories {
		_, ok := Lookup(c)
		assert.True(t, ok, c)
	}
	assert.Len(t, Registry, len(domain.Categories))
}

func TestRegistry_ListsAreDisjoint(t *testing.T) {
	for c, r := range Registry {
		assert.Empty(t, lo.Intersect(r.Required, r.Forbidden), "%s required∩forbidden", c)
		assert.Empty(t, lo.Intersect(r.Optional, r.Forbidden), "%s optional∩forbidden", c)
		assert.Empty(t, lo.Intersect(r.Required, r.Optional), "%s required∩optional", c)
		assert.Equal(t, len(r.Allowed()), len(lo.Uniq(r.Allowed())), "%s duplicate names", c)
	}
}

func TestAllFields(t *testing.T) {
	all := AllFields()
	assert.Contains(t, all, "carMake")
	assert.Contains(t, all, "diningType")
	assert.Contains(t, all, "serviceFeatures")
	assert.Contains(t, all, "numberOfRooms")
	assert.IsNonDecreasing(t, all)
	assert.Equal(t, len(all), len(lo.Uniq(all)))
}
