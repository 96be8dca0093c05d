// Package model defines the document types stored in the meetscribe database
// and the processing job state machine shared by the server and the external
// analysis worker.
package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a new unique document identifier.
// IDs are ObjectID hex strings so they sort roughly by creation time.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether s is a well-formed document identifier.
func ValidID(s string) bool {
	_, err := primitive.ObjectIDFromHex(s)
	return err == nil
}
