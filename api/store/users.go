/* users.go
 * Contains the methods for interacting with the users collection
 * Authors: Zachary Bower
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetUser does DB lookup and gets a user by platform id
// Preconditions: Receives the user id
// Postconditions: Returns the user if it exists, or an error wrapping mongo.ErrNoDocuments
func (s *Store) GetUser(ctx context.Context, userID string) (*shared.User, error) {
	var user shared.User
	err := s.Collections.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		return nil, fmt.Errorf("error fetching user from db: %w", err)
	}
	return &user, nil
}

// StoreUser stores a user in the db
// Preconditions: Receives the user including their linked steam id
// Postconditions: Stores or updates the user stored in the db, or returns an error if the operation was unsuccessful
func (s *Store) StoreUser(ctx context.Context, user shared.User) error {
	// Attempt to find an existing document
	var existing shared.User
	err := s.Collections.Users.FindOne(ctx, bson.M{"_id": user.UserID}).Decode(&existing)
	notFound := errors.Is(err, mongo.ErrNoDocuments)

	if err != nil && !notFound {
		return fmt.Errorf("lookup for existing user failed: %w", err)
	}

	// The user has not been stored before so we create a new document
	if notFound {
		if _, err := s.Collections.Users.InsertOne(ctx, user); err != nil {
			return fmt.Errorf("failed to insert new user: %w", err)
		}
		return nil
	}

	// Else update the user's existing document
	update := bson.M{"$set": bson.M{"username": user.Username, "steam_id": user.SteamID}}
	if _, err = s.Collections.Users.UpdateOne(ctx, bson.M{"_id": user.UserID}, update); err != nil {
		return fmt.Errorf("failed to update existing user: %w", err)
	}
	return nil
}
