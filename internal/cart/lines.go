package cart

import (
	"encoding/json"

	"github.com/fjod/techmart/internal/domain"
	"github.com/shopspring/decimal"
)

// lines is the stored form of a line-item list. Decoding accepts the flat shape
// ({id, name, price, quantity, ...}) and the older wrapper shape
// ({product: {...}, quantity}), and restores the one-line-per-id invariant.
type lines []domain.CartLineItem

// storedLine is the union of both historical shapes.
type storedLine struct {
	ID          domain.ProductID `json:"id"`
	Name        string           `json:"name"`
	Price       decimal.Decimal  `json:"price"`
	Quantity    *int             `json:"quantity"`
	Thumbnail   string           `json:"thumbnail"`
	Image       string           `json:"image"`
	Description string           `json:"description"`
	Product     *domain.Product  `json:"product"`
}

func (ls *lines) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := make(lines, 0, len(raw))
	index := make(map[domain.ProductID]int, len(raw))
	for _, r := range raw {
		item, ok := normalizeLine(r)
		if !ok {
			continue
		}
		if i, dup := index[item.ID]; dup {
			out[i].Quantity += item.Quantity
			continue
		}
		index[item.ID] = len(out)
		out = append(out, item)
	}

	*ls = out
	return nil
}

// normalizeLine returns false for entries that cannot be a valid line: no id,
// undecodable, or a non-positive quantity. A missing quantity means 1.
func normalizeLine(raw json.RawMessage) (domain.CartLineItem, bool) {
	var s storedLine
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.CartLineItem{}, false
	}

	qty := 1
	if s.Quantity != nil {
		qty = *s.Quantity
	}
	if qty <= 0 {
		return domain.CartLineItem{}, false
	}

	if s.ID == "" && s.Product != nil {
		item := domain.NewLineItem(*s.Product, qty)
		if item.Thumbnail == "" && len(s.Product.Images) > 0 {
			item.Thumbnail = s.Product.Images[0]
		}
		return item, item.ID != ""
	}
	if s.ID == "" {
		return domain.CartLineItem{}, false
	}

	thumb := s.Thumbnail
	if thumb == "" {
		thumb = s.Image
	}
	return domain.CartLineItem{
		ID:          s.ID,
		Name:        s.Name,
		Price:       s.Price,
		Quantity:    qty,
		Thumbnail:   thumb,
		Description: s.Description,
	}, true
}

func (ls lines) find(id domain.ProductID) int {
	for i := range ls {
		if ls[i].ID == id {
			return i
		}
	}
	return -1
}

func (ls lines) items() []domain.CartLineItem {
	if len(ls) == 0 {
		return []domain.CartLineItem{}
	}
	return domain.CloneLineItems(ls)
}
