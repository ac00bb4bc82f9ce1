package models

// Category groups dishes of one tenant.
type Category struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	TenantID int64   `json:"tenantId"`
	Dishes   []*Dish `json:"dishes,omitempty"`
}

// Dish is a menu item.
type Dish struct {
	ID              int64       `json:"id"`
	Name            string      `json:"name"`
	Description     string      `json:"description"`
	Price           float64     `json:"price"`
	PrepTimeMinutes int         `json:"prepTimeMinutes"`
	ImageURL        string      `json:"imageUrl,omitempty"`
	CategoryID      int64       `json:"categoryId"`
	Modifiers       []*Modifier `json:"modifiers,omitempty"`
}

// Modifier is an optional extra for a dish.
type Modifier struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	ExtraPrice float64 `json:"extraPrice"`
	DishID     int64   `json:"dishId"`
}
