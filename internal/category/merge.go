package category

import "listing_intake/internal/domain"

// MergeForUpdate overlays the allowed part of incoming onto existing.
// Keys absent from incoming keep their stored value; keys present in
// incoming win, nil included (that is how a field is cleared). Fields
// outside the category schema are dropped from incoming, never from
// existing. The result must be validated again before it is stored.
func MergeForUpdate(c domain.Category, existing, incoming domain.Fields) domain.Fields {
	result := existing.Clone()
	for k, v := range ExtractAllowedFields(c, incoming) {
		result[k] = v
	}
	return result
}
