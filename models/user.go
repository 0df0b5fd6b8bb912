package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is the reporting user. Only existence is checked by this service.
type User struct {
	ID    primitive.ObjectID `json:"_id" bson:"_id"`
	Name  string             `json:"name" bson:"name"`
	Email string             `json:"email" bson:"email"`
}
