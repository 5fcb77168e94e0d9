package domain

import "time"

// User is the profile kept in the session. It never carries a password.
type User struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	Name      string      `json:"name,omitempty"`
	FirstName string      `json:"firstName,omitempty"`
	LastName  string      `json:"lastName,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Company   string      `json:"company,omitempty"`
	Address   string      `json:"address,omitempty"`
	City      string      `json:"city,omitempty"`
	State     string      `json:"state,omitempty"`
	Zip       string      `json:"zip,omitempty"`
	Country   string      `json:"country,omitempty"`
	Role      string      `json:"role,omitempty"`
	Avatar    string      `json:"avatar,omitempty"`
	Wishlist  []ProductID `json:"wishlist,omitempty"`
	CreatedAt time.Time   `json:"createdAt,omitzero"`
	LoginTime time.Time   `json:"loginTime,omitzero"`
}

// UserRecord is a directory or registered user entry. Directory files may still
// carry a plaintext Password; it is hashed into PasswordHash when indexed and never
// written back.
type UserRecord struct {
	User
	Password     string `json:"password,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
}

// BillingPrefill maps the profile onto a billing form draft.
func (u User) BillingPrefill() BillingDetails {
	first, last := u.FirstName, u.LastName
	if first == "" && last == "" {
		first = u.Name
	}
	return BillingDetails{
		FirstName: first,
		LastName:  last,
		Email:     u.Email,
		Phone:     u.Phone,
		Company:   u.Company,
		Address:   u.Address,
		City:      u.City,
		State:     u.State,
		Zip:       u.Zip,
		Country:   u.Country,
	}
}
