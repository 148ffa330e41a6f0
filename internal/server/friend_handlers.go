package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.friendService.FriendsWithProfiles(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(friends)
}

// SendFriendRequest handles POST /api/friends/requests/:userId
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	targetID := pathParam(c, "userId")
	if err := s.friendService.SendFriendRequest(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Friend request sent",
		"recipientId": targetID,
	})
}

// GetPendingRequests handles GET /api/friends/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.IncomingRequestsWithProfiles(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// GetSentRequests handles GET /api/friends/requests/sent
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	sent, err := s.friendService.ListOutgoingRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sent)
}

// AcceptFriendRequest handles POST /api/friends/requests/:userId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	senderID := pathParam(c, "userId")
	if err := s.friendService.AcceptFriendRequest(c.UserContext(), currentUserID(c), senderID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend request accepted", "friendId": senderID})
}

// DenyFriendRequest handles POST /api/friends/requests/:userId/deny
func (s *Server) DenyFriendRequest(c *fiber.Ctx) error {
	if err := s.friendService.DenyFriendRequest(c.UserContext(), currentUserID(c), pathParam(c, "userId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend request denied"})
}

// CancelFriendRequest handles DELETE /api/friends/requests/:userId
func (s *Server) CancelFriendRequest(c *fiber.Ctx) error {
	if err := s.friendService.CancelFriendRequest(c.UserContext(), currentUserID(c), pathParam(c, "userId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend request cancelled"})
}

// GetFriendshipStatus handles GET /api/friends/status/:userId
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	status, err := s.friendService.GetFriendshipStatus(c.UserContext(), currentUserID(c), pathParam(c, "userId"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": status})
}

// RemoveFriend handles DELETE /api/friends/:userId
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	if err := s.friendService.RemoveFriend(c.UserContext(), currentUserID(c), pathParam(c, "userId")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Friend removed"})
}
