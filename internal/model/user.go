package model

const DefaultUserStatus = "I am new!"

type User struct {
	ID           string   `json:"id" bson:"_id"`
	Email        string   `json:"email" bson:"email"`
	Name         string   `json:"name" bson:"name"`
	PasswordHash string   `json:"-" bson:"password"`
	Status       string   `json:"status" bson:"status"`
	PostIDs      []string `json:"post_ids" bson:"posts"`
	Ctime        int64    `json:"ctime" bson:"created_at"`
	Mtime        int64    `json:"mtime" bson:"updated_at"`
}
