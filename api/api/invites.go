/* invites.go
 * Contains the team join requests. A request is keyed by team and user and moves from pending to accepted,
 * rejected or expired exactly once
 * Authors: Zachary Bower
 */

package api

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type InviteStatus string

const (
	InvitePending  InviteStatus = "pending"
	InviteAccepted InviteStatus = "accepted"
	InviteRejected InviteStatus = "rejected"
	InviteExpired  InviteStatus = "expired"
)

// InviteRequest is a user's request to join a team, waiting for the team captain
type InviteRequest struct {
	ID        string
	TeamID    string
	UserID    string
	Status    InviteStatus
	CreatedAt time.Time
	ExpiresAt time.Time
}

type inviteRegistry struct {
	mu      sync.Mutex
	pending map[string]*InviteRequest
}

func newInviteRegistry() *inviteRegistry {
	return &inviteRegistry{pending: make(map[string]*InviteRequest)}
}

func inviteKey(teamID string, userID string) string {
	return teamID + ":" + userID
}

// open registers a pending request, returning ErrInvitePending if the user is already waiting on any team
func (r *inviteRegistry) open(teamID string, userID string, ttl time.Duration) (*InviteRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.pending {
		if req.UserID == userID {
			return nil, ErrInvitePending
		}
	}
	key := inviteKey(teamID, userID)
	now := time.Now().UTC()
	req := &InviteRequest{
		ID:        uuid.NewString(),
		TeamID:    teamID,
		UserID:    userID,
		Status:    InvitePending,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	r.pending[key] = req
	return req, nil
}

// resolve moves a pending request to its final status. Requests that were already resolved keep their status
func (r *inviteRegistry) resolve(req *InviteRequest, status InviteStatus) InviteStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if req.Status != InvitePending {
		return req.Status
	}
	req.Status = status
	delete(r.pending, inviteKey(req.TeamID, req.UserID))
	return status
}

// forTeam returns copies of the pending requests of a team, oldest first
func (r *inviteRegistry) forTeam(teamID string) []InviteRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	var reqs []InviteRequest
	for _, req := range r.pending {
		if req.TeamID == teamID {
			reqs = append(reqs, *req)
		}
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].CreatedAt.Before(reqs[j].CreatedAt) })
	return reqs
}
