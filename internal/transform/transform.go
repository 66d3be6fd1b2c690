// Package transform turns the decoded object of one category into the flat,
// canonically typed fields that are validated and stored.
package transform

import (
	"fmt"

	"github.com/samber/mo"

	"listing_intake/internal/domain"
)

// Transformer maps a decoded category object to flat fields. Input that is
// absent or not an object yields None.
type Transformer func(v any) mo.Option[domain.Fields]

// Prefix is the submission key that carries the category's data.
func Prefix(c domain.Category) string {
	switch c {
	case domain.CarRental:
		return "carRental"
	case domain.Resort:
		return "resort"
	case domain.FineDining:
		return "dining"
	case domain.ConvenienceService:
		return "convenience"
	}
	panic(fmt.Sprintf("transform: no prefix for category %q", c))
}

// For returns the transformer of c.
func For(c domain.Category) (Transformer, bool) {
	switch c {
	case domain.CarRental:
		return CarRental, true
	case domain.Resort:
		return Resort, true
	case domain.FineDining:
		return FineDining, true
	case domain.ConvenienceService:
		return Convenience, true
	}
	return nil, false
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func CarRental(v any) mo.Option[domain.Fields] {
	in, ok := object(v)
	if !ok {
		return mo.None[domain.Fields]()
	}
	m := newMapper(in)
	m.str("carMake", "carMake")
	m.str("carModel", "carModel")
	m.integer("carYear", "carYear")
	m.integer("carSeats", "carSeats")
	m.str("carTransmission", "carTransmission")
	m.str("carFuelType", "carFuelType")
	m.str("carPlateNumber", "carPlateNumber")
	m.str("carColor", "carColor")
	m.integer("carMileage", "carMileage")
	m.list("carFeatures", "carFeatures")
	m.boolean("chauffeurIncluded", "chauffeurIncluded")
	m.integer("chauffeurPricePerDay", "chauffeurPricePerDay")
	m.integer("chauffeurPricePerHour", "chauffeurPricePerHour")
	m.boolean("insuranceCoverage", "insuranceCoverage")
	m.integer("deliveryFee", "deliveryFee")
	return mo.Some(m.out)
}

func Resort(v any) mo.Option[domain.Fields] {
	in, ok := object(v)
	if !ok {
		return mo.None[domain.Fields]()
	}
	m := newMapper(in)
	m.str("resortType", "resortType")
	m.str("roomType", "roomType")
	m.integer("capacity", "capacity")
	m.integer("maxCapacity", "maxCapacity")
	m.str("checkInTime", "checkInTime")
	m.str("checkOutTime", "checkOutTime")
	m.str("packageType", "packageType")
	m.list("amenities", "amenities")
	m.list("activities", "activities")
	m.list("inclusions", "inclusions")
	m.integer("pricePerGroup", "pricePerGroup")
	m.integer("minimumGroupSize", "minimumGroupSize")
	return mo.Some(m.out)
}

// Convenience also reads the legacy keys priceType and features.
func Convenience(v any) mo.Option[domain.Fields] {
	in, ok := object(v)
	if !ok {
		return mo.None[domain.Fields]()
	}
	m := newMapper(in)
	m.str("serviceType", "serviceType")
	m.str("serviceDescription", "serviceDescription")
	m.str("pricingType", "pricingType", "priceType")
	m.str("serviceArea", "serviceArea")
	m.list("coverageArea", "coverageArea")
	m.str("estimatedDuration", "estimatedDuration")
	m.integer("serviceDuration", "serviceDuration")
	m.integer("hourlyRate", "hourlyRate")
	m.integer("fixedPrice", "fixedPrice")
	m.integer("minimumDuration", "minimumDuration")
	m.integer("deliveryServiceFee", "deliveryServiceFee")
	m.list("serviceFeatures", "serviceFeatures", "features")
	// only ever set to true; false or garbage leaves the stored value alone
	if raw, ok := m.raw("advanceBookingRequired"); ok {
		if b, ok := parseBool(raw).Get(); ok && b {
			m.out["advanceBookingRequired"] = true
		}
	}
	return mo.Some(m.out)
}

func FineDining(v any) mo.Option[domain.Fields] {
	in, ok := object(v)
	if !ok {
		return mo.None[domain.Fields]()
	}
	m := newMapper(in)
	m.str("diningType", "diningType")
	if raw, ok := m.raw("cuisineType"); ok {
		if s, ok := cuisineType(raw).Get(); ok {
			m.out["cuisineType"] = s
		} else {
			m.out["cuisineType"] = nil
		}
	}
	m.list("cuisineTypes", "cuisineTypes")
	m.integer("seatingCapacity", "seatingCapacity")
	m.text("openingHours", "openingHours")
	m.list("menuCategories", "menuCategories")
	if raw, ok := m.raw("menuItems"); ok {
		if items, ok := MenuItems(raw).Get(); ok {
			m.out["menuItems"] = items
		}
	}
	m.str("menuPdfUrl", "menuPdfUrl")
	m.str("priceRange", "priceRange")
	m.list("specialties", "specialties")
	m.list("diningAmenities", "diningAmenities")
	m.str("dressCode", "dressCode")
	m.boolean("reservationRequired", "reservationRequired")
	return mo.Some(m.out)
}

// cuisineType accepts a single value or a multi-select and keeps the first
// non-blank entry.
func cuisineType(v any) mo.Option[string] {
	switch t := v.(type) {
	case []any, []string:
		if arr, ok := parseArray(t).Get(); ok && len(arr) > 0 {
			return mo.Some(arr[0])
		}
		return mo.None[string]()
	}
	if s, ok := parseString(v).Get(); ok && s != "" {
		return mo.Some(s)
	}
	return mo.None[string]()
}

// Location normalizes the listing address block.
func Location(v any) mo.Option[domain.Fields] {
	in, ok := object(v)
	if !ok {
		return mo.None[domain.Fields]()
	}
	m := newMapper(in)
	m.str("address", "address")
	m.str("city", "city")
	m.str("state", "state")
	m.str("country", "country")
	m.str("postalCode", "postalCode", "zip")
	m.float("latitude", "latitude", "lat")
	m.float("longitude", "longitude", "lng", "lon")
	return mo.Some(m.out)
}

// TopLevel maps the plain listing fields shared by every category.
func TopLevel(in map[string]any) domain.Fields {
	m := newMapper(in)
	m.str("title", "title")
	m.str("description", "description")
	m.str("category", "category")
	m.integer("basePrice", "basePrice")
	return m.out
}
