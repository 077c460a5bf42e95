// Package controllers holds the HTTP handlers. Each controller wraps
// one service and translates between the wire format and the service
// inputs; business rules live in app/services.
package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/sehatly/pkg/auth"
	"github.com/shashiranjanraj/sehatly/pkg/middleware"
)

// currentUser extracts the authenticated caller's id and role from
// the request context. The auth middleware guarantees the claims are
// present on protected routes.
func currentUser(r *http.Request) (primitive.ObjectID, *auth.Claims, bool) {
	claims, ok := middleware.ClaimsFromCtx(r.Context())
	if !ok {
		return primitive.NilObjectID, nil, false
	}
	id, err := primitive.ObjectIDFromHex(claims.UserID)
	if err != nil {
		return primitive.NilObjectID, nil, false
	}
	return id, claims, true
}
