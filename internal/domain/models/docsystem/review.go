package docsystem

import "time"

// Review is an annotation recorded on an object by a reviewer or an
// integration. There is at most one review per (object, user).
type Review struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Icon      *string   `json:"icon" db:"icon"`
	URL       *string   `json:"url" db:"url"`
	URLText   *string   `json:"url_text" db:"url_text"`
	Value     string    `json:"value,omitempty" db:"value"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UserID    string    `json:"user_id" db:"user_id"`
	ObjectID  string    `json:"object_id" db:"object_id"`
}
