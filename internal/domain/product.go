package domain

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID is compared as a string. The static catalog and older stored carts
// carry ids as JSON numbers, so both forms decode.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("product id must be a string or number: %w", err)
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string {
	return string(id)
}

type Product struct {
	ID            ProductID       `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Discount      float64         `json:"discount,omitempty"`
	Rating        float64         `json:"rating,omitempty"`
	Stock         int             `json:"stock,omitempty"`
	Thumbnail     string          `json:"thumbnail,omitempty"`
	Images        []string        `json:"images,omitempty"`
	CategoryID    ProductID       `json:"categoryId,omitempty"`
	SubCategoryID ProductID       `json:"subCategoryId,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
}

func (p Product) OnSale() bool {
	return p.Discount > 0
}

type Category struct {
	ID          ProductID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
}

type Subcategory struct {
	ID         ProductID `json:"id"`
	Name       string    `json:"name"`
	CategoryID ProductID `json:"categoryId,omitempty"`
}

type Review struct {
	ID        ProductID `json:"id"`
	ProductID ProductID `json:"productId"`
	UserID    string    `json:"userId,omitempty"`
	UserName  string    `json:"userName,omitempty"`
	Rating    float64   `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Date      string    `json:"date,omitempty"`
}
