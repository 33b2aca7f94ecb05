/* users.go
 * Contains linking a platform user to their steam account
 * Authors: Zachary Bower
 */

package api

import (
	"context"
	"errors"
	"regexp"

	"github.com/thboss/g5-discord-bot-sub000/api/shared"

	"go.mongodb.org/mongo-driver/mongo"
)

var steamID64 = regexp.MustCompile(`^7656119\d{10}$`)

// LinkUser records the steam account of a user, which is required to join a queue
// Preconditions: Receives the platform user id, their display name and a SteamID64
// Postconditions: The user is stored with the steam id, or ErrInvalidSteamID is returned
func (a *API) LinkUser(ctx context.Context, userID string, username string, steamID string) error {
	if !steamID64.MatchString(steamID) {
		return ErrInvalidSteamID
	}
	return a.Store.StoreUser(ctx, shared.User{UserID: userID, Username: username, SteamID: steamID})
}

// User returns a stored user, or ErrNotLinked if the user never linked an account
func (a *API) User(ctx context.Context, userID string) (*shared.User, error) {
	user, err := a.Store.GetUser(ctx, userID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotLinked
	}
	return user, err
}
