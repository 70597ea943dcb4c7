package services

import (
	"net/http"

	"roundreview/internal/domain/models"
)

// Authenticator resolves the actor behind a request from a bearer token or
// an API key. It returns a domain.UnauthorizedError when no valid actor is
// present and a domain.ForbiddenError when the actor may not sign in.
// The core only ever sees the resolved Actor.
type Authenticator interface {
	Authenticate(r *http.Request) (models.Actor, error)
}
