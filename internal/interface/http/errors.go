package handlers

import (
	"errors"
	"net/http"

	"shoplist-backend/internal/application"
	"shoplist-backend/internal/domain/repository"
)

// genericMessage is the fallback for errors the table does not recognize.
const genericMessage = "Something went wrong. Please try again."

// userMessage maps domain errors to user-facing feedback messages through a
// fixed table. Unrecognized errors fall back to a generic message; internal
// detail never reaches the response body.
func userMessage(err error) (int, string) {
	switch {
	case errors.Is(err, application.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials. Check your email and password."
	case errors.Is(err, application.ErrPasswordMismatch):
		return http.StatusBadRequest, "The passwords don't match."
	case errors.Is(err, application.ErrWeakPassword):
		return http.StatusBadRequest, "The password must be at least 6 characters."
	case errors.Is(err, application.ErrEmailInUse):
		return http.StatusConflict, "This email is already in use. Use another email or sign in."
	case errors.Is(err, application.ErrAccountPending):
		return http.StatusForbidden, "Your account hasn't been approved yet. Wait for a team member to unlock it."
	case errors.Is(err, application.ErrProfileMissing):
		return http.StatusForbidden, "Account authenticated but not found in the database. Contact an administrator."
	case errors.Is(err, application.ErrUserNotFound):
		return http.StatusNotFound, "User not found."
	case errors.Is(err, application.ErrListNameRequired):
		return http.StatusBadRequest, "The list name is required."
	case errors.Is(err, application.ErrItemNameRequired):
		return http.StatusBadRequest, "Enter the item name."
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Not found."
	default:
		return http.StatusInternalServerError, genericMessage
	}
}
