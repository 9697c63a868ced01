package types

import "time"

// Post represents a published blog entry.
type Post struct {
	// ID is the unique identifier of the post.
	ID int64 `json:"id" db:"id"`

	// Title is the post headline.
	Title string `json:"title" db:"title"`

	// AuthorName is the display name shown alongside the post.
	AuthorName string `json:"authorName" db:"author_name"`

	// AuthorID is the owning user's ID.
	AuthorID int64 `json:"authorId" db:"author_id"`

	// ImageLink references the cover image. It must end in an allowed
	// image extension; the image bytes themselves live elsewhere.
	ImageLink string `json:"imageLink" db:"image_link"`

	// Description is the free-text body of the post.
	Description string `json:"description" db:"description"`

	// Categories holds 1-3 entries from the fixed category set.
	Categories []string `json:"categories" db:"categories"`

	// IsFeaturedPost marks the post for the featured listing.
	IsFeaturedPost bool `json:"isFeaturedPost" db:"is_featured"`

	// CreatedAt is the timestamp when the post was published.
	CreatedAt time.Time `json:"timeOfPost" db:"created_at"`
}

// PostUpdate carries a partial update for a post. Nil fields are left
// unchanged.
type PostUpdate struct {
	Title          *string   `json:"title"`
	AuthorName     *string   `json:"authorName"`
	ImageLink      *string   `json:"imageLink"`
	Description    *string   `json:"description"`
	Categories     *[]string `json:"categories"`
	IsFeaturedPost *bool     `json:"isFeaturedPost"`
}

// Categories is the fixed set posts may be filed under.
var Categories = []string{
	"Travel",
	"Nature",
	"City",
	"Adventure",
	"Food",
	"Culture",
	"Wildlife",
	"Beaches",
	"Mountains",
	"History",
}

// ValidCategory reports whether name belongs to the fixed category set.
func ValidCategory(name string) bool {
	for _, c := range Categories {
		if c == name {
			return true
		}
	}
	return false
}
