package domain

import "time"

// Categories a product can be listed under. The set is fixed.
var Categories = []string{
	"Study Material",
	"Foods",
	"Rooms",
	"Vehicle",
	"Kitchen Accessories",
}

type Product struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	ImageURL    string    `db:"image_url" json:"image_url,omitempty"`
	Category    string    `db:"category" json:"category"`
	SellerID    string    `db:"seller_id" json:"seller_id"`
	SellerEmail string    `db:"-" json:"seller_email,omitempty"`
	Available   bool      `db:"is_available" json:"is_available"`
	Sponsored   bool      `db:"is_sponsored" json:"is_sponsored"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"-"`
}

type Like struct {
	ProductID string    `db:"product_id"`
	UserID    string    `db:"user_id"`
	CreatedAt time.Time `db:"created_at"`
}

// LikeState is the derived view of a product's likes for one viewer.
type LikeState struct {
	Count         int  `json:"count"`
	Liked         bool `json:"liked"`
	AdminEndorsed bool `json:"admin_endorsed"`
}

type Comment struct {
	ID          string    `db:"id" json:"id"`
	ProductID   string    `db:"product_id" json:"product_id"`
	SellerID    string    `db:"seller_id" json:"seller_id"`
	Text        string    `db:"comment_text" json:"comment_text"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	DisplayName string    `db:"-" json:"display_name"`
}

type CarouselItem struct {
	ID           string    `db:"id" json:"id"`
	ImageURL     string    `db:"image_url" json:"image_url"`
	Title        string    `db:"title" json:"title,omitempty"`
	Subtitle     string    `db:"subtitle" json:"subtitle,omitempty"`
	LinkURL      string    `db:"link_url" json:"link_url,omitempty"`
	DisplayOrder int       `db:"display_order" json:"display_order"`
	Active       bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"-"`
}
