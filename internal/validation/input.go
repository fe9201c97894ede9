// input.go validates the payloads accepted from the public menu page and the
// bulk menu import.
package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/menuhub/menuhub/internal/db/models"
	"github.com/menuhub/menuhub/internal/tags"
)

const (
	MinRating          = 1
	MaxRating          = 5
	MaxCommentLength   = 2000
	MaxNameLength      = 120
	MaxTableLabel      = 32
	MaxDescription     = 1000
	MaxMenus           = 50
	MaxItemsPerImport  = 1000
	MaxOrderLines      = 50
	MaxOrderQuantity   = 99
	MaxPriceCents      = 100_000_000
	MaxOrderNoteLength = 500
)

func checkLength(field, s string, limit int) error {
	if n := utf8.RuneCountInString(s); n > limit {
		return fmt.Errorf("%s must be at most %d characters (got %d)", field, limit, n)
	}
	return nil
}

// ValidateFeedback checks a customer rating and its optional texts.
func ValidateFeedback(rating int, comment, customerName, tableLabel *string) error {
	return validateFeedback(rating, deref(comment), deref(customerName), deref(tableLabel))
}

func validateFeedback(rating int, comment, customerName, tableLabel string) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("rating must be between %d and %d", MinRating, MaxRating)
	}
	if err := checkLength("comment", comment, MaxCommentLength); err != nil {
		return err
	}
	if err := checkLength("customer_name", customerName, MaxNameLength); err != nil {
		return err
	}
	return ValidateTableLabel(tableLabel)
}

// ValidateTableLabel checks the free-form table identifier printed on QR
// cards. Empty is allowed.
func ValidateTableLabel(label string) error {
	return checkLength("table", label, MaxTableLabel)
}

// ValidateMenus checks a bulk menu import before it replaces stored menus.
func ValidateMenus(menus []models.Menu) error {
	if len(menus) > MaxMenus {
		return fmt.Errorf("at most %d menus can be imported", MaxMenus)
	}

	items := 0
	for i, m := range menus {
		if m.Name == "" {
			return fmt.Errorf("menus[%d]: name is required", i)
		}
		if err := checkLength(fmt.Sprintf("menus[%d].name", i), m.Name, MaxNameLength); err != nil {
			return err
		}
		for j, item := range m.Items {
			if err := validateItem(item); err != nil {
				return fmt.Errorf("menus[%d].items[%d]: %w", i, j, err)
			}
		}
		items += len(m.Items)
	}
	if items > MaxItemsPerImport {
		return fmt.Errorf("at most %d items can be imported", MaxItemsPerImport)
	}
	return nil
}

func validateItem(item models.MenuItem) error {
	if item.Name == "" {
		return fmt.Errorf("name is required")
	}
	if err := checkLength("name", item.Name, MaxNameLength); err != nil {
		return err
	}
	if err := checkLength("description", item.Description, MaxDescription); err != nil {
		return err
	}
	if item.PriceCents < 0 || item.PriceCents > MaxPriceCents {
		return fmt.Errorf("price_cents must be between 0 and %d", MaxPriceCents)
	}
	for _, t := range item.Tags {
		if !tags.Valid(t) {
			return fmt.Errorf("unknown tag %q", t)
		}
	}
	return nil
}

// ValidateOrderLine checks one requested quantity of a WhatsApp order. Item
// ids are UUIDs; anything else can never match a menu item.
func ValidateOrderLine(itemID string, quantity int) error {
	if itemID == "" {
		return fmt.Errorf("item_id is required")
	}
	if _, err := uuid.Parse(itemID); err != nil {
		return fmt.Errorf("item_id %q is not a valid menu item id", itemID)
	}
	if quantity < 1 || quantity > MaxOrderQuantity {
		return fmt.Errorf("quantity must be between 1 and %d", MaxOrderQuantity)
	}
	return nil
}

// ValidateOrderNote checks the free-text note appended to an order.
func ValidateOrderNote(note string) error {
	return checkLength("note", note, MaxOrderNoteLength)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
