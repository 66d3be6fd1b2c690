package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/rs/zerolog/log"

	"listing_intake/internal/adapters/observability"
	"listing_intake/internal/category"
	"listing_intake/internal/domain"
	"listing_intake/internal/form"
	"listing_intake/internal/transform"
)

var ErrCategoryChange = errors.New("listing category cannot be changed")

// menuPdfFields are the upload field names that carry a dining menu PDF.
var menuPdfFields = []string{"dining[menuPdf]", "menuPdf"}

// File is one uploaded part, keyed by its form field name.
type File struct {
	Field string
	domain.Asset
}

type ListingService struct {
	repo   domain.ListingRepository
	cache  domain.Cache
	assets domain.AssetStore
	now    func() time.Time
	newID  func() string
}

// NewListingService wires the write side. cache and assets may be nil.
func NewListingService(r domain.ListingRepository, c domain.Cache, a domain.AssetStore) *ListingService {
	return &ListingService{
		repo:   r,
		cache:  c,
		assets: a,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

func (s *ListingService) Create(ctx context.Context, sub *form.Submission, files []File) (domain.Listing, error) {
	dec, err := form.AssembleAll(sub)
	if err != nil {
		observability.ObserveDecodeError(decodePrefix(err))
		return domain.Listing{}, err
	}
	top := transform.TopLevel(dec.TopLevel)
	cat, ok := domain.ParseCategory(asString(top["category"]))
	if !ok {
		cat = domain.Category(asString(top["category"]))
	}

	details := categoryFields(cat, dec)
	if err := s.attachMenuPDF(ctx, cat, files, details); err != nil {
		return domain.Listing{}, err
	}

	now := s.now()
	l := domain.Listing{ID: s.newID(), Category: cat, Details: details, CreatedAt: now, UpdatedAt: now}
	applyTopLevel(&l, top)
	if loc, ok := transform.Location(dec.Prefixed["location"]).Get(); ok {
		l.Location = loc
	}

	if err := validateListing(l); err != nil {
		return domain.Listing{}, err
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		log.Error().Err(err).Str("category", string(cat)).Msg("insert listing failed")
		return domain.Listing{}, fmt.Errorf("insert listing: %w", err)
	}
	s.invalidate(ctx, l.ID)
	log.Info().Str("id", l.ID).Str("category", string(cat)).Msg("listing created")
	return l, nil
}

// Update applies a partial submission. Fields the client did not send keep
// their stored value; explicitly blank or null fields are cleared, and the
// merged record must still satisfy its category schema.
func (s *ListingService) Update(ctx context.Context, id string, sub *form.Submission, files []File) (domain.Listing, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Listing{}, err
	}
	dec, err := form.AssembleAll(sub)
	if err != nil {
		observability.ObserveDecodeError(decodePrefix(err))
		return domain.Listing{}, err
	}
	top := transform.TopLevel(dec.TopLevel)
	if raw := asString(top["category"]); raw != "" {
		if c, ok := domain.ParseCategory(raw); !ok || c != existing.Category {
			return domain.Listing{}, ErrCategoryChange
		}
	}
	delete(top, "category")

	incoming := categoryFields(existing.Category, dec)
	if err := s.attachMenuPDF(ctx, existing.Category, files, incoming); err != nil {
		return domain.Listing{}, err
	}

	l := existing
	l.Details = category.MergeForUpdate(existing.Category, existing.Details, incoming)
	applyTopLevel(&l, top)
	if loc, ok := transform.Location(dec.Prefixed["location"]).Get(); ok {
		l.Location = overlay(existing.Location, loc)
	}
	l.UpdatedAt = s.now()

	if err := validateListing(l); err != nil {
		return domain.Listing{}, err
	}
	if err := s.repo.Update(ctx, l); err != nil {
		log.Error().Err(err).Str("id", id).Msg("update listing failed")
		return domain.Listing{}, fmt.Errorf("update listing %s: %w", id, err)
	}
	s.invalidate(ctx, id)
	return l, nil
}

// categoryFields transforms the category object of dec. Schema field names
// submitted without a prefix are folded in: allowed ones go through the
// transformer, forbidden ones are kept as submitted so validation sees them.
func categoryFields(c domain.Category, dec form.Decoded) domain.Fields {
	tr, ok := transform.For(c)
	if !ok {
		return domain.Fields{}
	}
	obj, _ := dec.Object(transform.Prefix(c))
	strays := map[string]any{}
	for _, name := range category.AllFields() {
		if v, ok := dec.TopLevel[name]; ok {
			if s, isStr := v.(string); isStr {
				v = form.Coerce(s)
			}
			strays[name] = v
		}
	}
	if len(strays) > 0 {
		merged := make(map[string]any, len(obj)+len(strays))
		for k, v := range strays {
			merged[k] = v
		}
		for k, v := range obj {
			merged[k] = v
		}
		obj = merged
	}
	if obj == nil {
		return domain.Fields{}
	}
	fields := tr(obj).OrElse(domain.Fields{})
	// transformers ignore foreign names; keep forbidden ones for the validator
	if req, ok := category.Lookup(c); ok {
		for _, name := range req.Forbidden {
			if v, ok := obj[name]; ok {
				if _, set := fields[name]; !set {
					fields[name] = v
				}
			}
		}
	}
	return fields
}

func (s *ListingService) attachMenuPDF(ctx context.Context, c domain.Category, files []File, details domain.Fields) error {
	if c != domain.FineDining || s.assets == nil {
		return nil
	}
	for _, f := range files {
		if !lo.Contains(menuPdfFields, f.Field) {
			continue
		}
		a := f.Asset
		if a.Folder == "" {
			a.Folder = "menus"
		}
		stored, err := s.assets.Upload(ctx, a)
		if err != nil {
			return fmt.Errorf("upload menu pdf: %w", err)
		}
		details["menuPdfUrl"] = stored.SecureURL
		return nil
	}
	return nil
}

func validateListing(l domain.Listing) error {
	var errs []category.FieldError
	if strings.TrimSpace(l.Title) == "" {
		errs = append(errs, category.FieldError{Field: "title", Message: "title is required"})
	}
	res := category.Validate(l.Category, l.Details)
	errs = append(errs, res.Errors...)
	if res.Valid && l.Category == domain.FineDining && !transform.HasMenuItems(l.Details) {
		errs = append(errs, category.FieldError{
			Field:   "menuItems",
			Message: fmt.Sprintf("at least one valid menu item is required for %s listings", l.Category),
		})
	}
	label := string(l.Category)
	if _, known := category.Lookup(l.Category); !known {
		label = "unknown"
	}
	observability.ObserveValidation(label, len(errs) == 0)
	if len(errs) == 0 {
		return nil
	}
	log.Debug().Str("category", string(l.Category)).Int("errors", len(errs)).Msg("listing rejected")
	return &category.ValidationError{Category: l.Category, Errors: errs}
}

func applyTopLevel(l *domain.Listing, top domain.Fields) {
	if v, ok := top["title"]; ok {
		l.Title = asString(v)
	}
	if v, ok := top["description"]; ok {
		if s := asString(v); s != "" {
			l.Description = &s
		} else {
			l.Description = nil
		}
	}
	if v, ok := top["basePrice"]; ok {
		if n, isInt := v.(int); isInt {
			l.BasePrice = &n
		} else {
			l.BasePrice = nil
		}
	}
}

// overlay writes every key of incoming over a copy of base.
func overlay(base, incoming domain.Fields) domain.Fields {
	out := base.Clone()
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

func (s *ListingService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, listingKey(id))
}

func listingKey(id string) string { return "listing:" + id }

func decodePrefix(err error) string {
	var pc *form.PathConflictError
	if errors.As(err, &pc) {
		return pc.Prefix()
	}
	return "unknown"
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
