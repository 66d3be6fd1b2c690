// Package category holds the per-category field schema and the rules built
// on it: required/forbidden validation, allowed-field extraction and the
// update merge.
package category

import (
	"github.com/samber/lo"

	"listing_intake/internal/domain"
)

// Requirements is the field schema of one category. A name appears in at
// most one of the three lists.
type Requirements struct {
	Required  []string
	Optional  []string
	Forbidden []string
}

// Allowed returns Required followed by Optional.
func (r Requirements) Allowed() []string {
	return append(append([]string(nil), r.Required...), r.Optional...)
}

// Registry is static configuration; a new category needs one row here and
// one transformer.
var Registry = map[domain.Category]Requirements{
	domain.CarRental: {
		Required: []string{"carMake", "carModel", "carYear", "carSeats", "carTransmission", "carFuelType", "carPlateNumber"},
		Optional: []string{"carColor", "carMileage", "carFeatures", "chauffeurIncluded", "chauffeurPricePerDay",
			"chauffeurPricePerHour", "insuranceCoverage", "deliveryFee"},
		Forbidden: []string{"resortType", "numberOfRooms", "cuisineType", "serviceDescription", "diningType"},
	},
	domain.Resort: {
		Required: []string{"resortType", "roomType", "capacity"},
		Optional: []string{"checkInTime", "checkOutTime", "packageType", "amenities", "maxCapacity", "activities",
			"inclusions", "pricePerGroup", "minimumGroupSize"},
		Forbidden: []string{"carMake", "carModel", "cuisineType", "serviceDescription", "pricingType", "diningType"},
	},
	domain.FineDining: {
		Required: []string{"diningType"},
		Optional: []string{"cuisineType", "cuisineTypes", "seatingCapacity", "openingHours", "menuCategories",
			"menuItems", "menuPdfUrl", "priceRange", "specialties", "diningAmenities", "dressCode", "reservationRequired"},
		Forbidden: []string{"carMake", "resortType", "numberOfRooms", "pricingType", "serviceDescription"},
	},
	domain.ConvenienceService: {
		Required: []string{"serviceType", "serviceDescription"},
		Optional: []string{"pricingType", "serviceArea", "estimatedDuration", "serviceDuration", "coverageArea",
			"hourlyRate", "fixedPrice", "minimumDuration", "deliveryServiceFee", "serviceFeatures", "advanceBookingRequired"},
		Forbidden: []string{"carMake", "resortType", "cuisineType", "numberOfRooms", "diningType"},
	},
}

func Lookup(c domain.Category) (Requirements, bool) {
	r, ok := Registry[c]
	return r, ok
}

// AllFields is every field name the registry mentions, in any list of any
// category, sorted.
func AllFields() []string {
	var all []string
	for _, c := range domain.Categories {
		r := Registry[c]
		all = append(all, r.Allowed()...)
		all = append(all, r.Forbidden...)
	}
	all = lo.Uniq(all)
	return sortStrings(all)
}
