package server

import (
	"context"

	"threadline/internal/featureflags"
	"threadline/internal/middleware"
	"threadline/internal/notifications"
)

// publishUserEvent pushes an event to one user's activity stream. Delivery is
// best-effort and never fails the request that caused it.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload map[string]any) {
	if !s.featureFlags.Enabled(featureflags.RealtimeActivity, userID) {
		return
	}
	s.publish(ctx, &userID, notifications.NewEvent(eventType, payload))
}

// publishBroadcastEvent pushes an event to every connected user.
func (s *Server) publishBroadcastEvent(ctx context.Context, eventType string, payload map[string]any) {
	if !s.featureFlags.On(featureflags.RealtimeActivity) {
		return
	}
	s.publish(ctx, nil, notifications.NewEvent(eventType, payload))
}

// publish goes through Redis when the subscriber is wired so every instance sees the
// event exactly once; otherwise it delivers to this instance's hub directly.
func (s *Server) publish(ctx context.Context, userID *uint, e notifications.Event) {
	ctx = context.WithoutCancel(ctx)
	if s.notifier != nil && s.realtimeWired {
		if err := s.notifier.PublishEvent(ctx, userID, e); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to publish event", "type", e.Type, "error", err)
		}
		return
	}

	message, err := e.Encode()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to encode event", "type", e.Type, "error", err)
		return
	}
	if userID != nil {
		s.hub.Deliver(*userID, message)
		return
	}
	s.hub.DeliverAll(message)
}
