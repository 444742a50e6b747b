package model

// DefaultImageURL is stored when a post is created without an image.
const DefaultImageURL = "no image here"

type Post struct {
	ID        string `json:"id" bson:"_id"`
	Title     string `json:"title" bson:"title"`
	ImageURL  string `json:"image_url" bson:"image_url"`
	Content   string `json:"content" bson:"content"`
	CreatorID string `json:"creator_id" bson:"creator"`
	Ctime     int64  `json:"ctime" bson:"created_at"`
	Mtime     int64  `json:"mtime" bson:"updated_at"`

	// Creator is resolved on read and never persisted.
	Creator *User `json:"creator,omitempty" bson:"-"`
}
