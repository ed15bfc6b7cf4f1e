package handlers

import (
	"errors"
	"net/http"

	"inksynth/internal/domain"
)

// ProfileGet returns the display-safe profile of the signed-in user.
func (a *App) ProfileGet(w http.ResponseWriter, r *http.Request) {
	if a.demoMode() {
		a.fail(w, http.StatusForbidden, msgDemoMode)
		return
	}
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	user, err := a.Users.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.fail(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		a.log(r).Error().Err(err).Str("user_id", userID).Msg("profile.get.failed")
		a.fail(w, http.StatusInternalServerError, msgLoadFailed)
		return
	}
	a.ok(w, http.StatusOK, domain.ReadProfile(*user))
}

// ProfileSave validates and stores the profile of the signed-in user. The
// whole public metadata blob is replaced.
func (a *App) ProfileSave(w http.ResponseWriter, r *http.Request) {
	if a.demoMode() {
		a.fail(w, http.StatusForbidden, msgDemoMode)
		return
	}
	userID := a.currentUserID(r)
	if userID == "" {
		a.fail(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	body, err := readBody(w, r)
	if err != nil {
		a.fail(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	profile, err := domain.ValidateProfileInput(body)
	if err != nil {
		a.log(r).Debug().Err(err).Str("user_id", userID).Msg("profile.save.rejected")
		a.fail(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}

	metadata, err := domain.NewProfileMetadata(profile).Marshal()
	if err != nil {
		a.log(r).Error().Err(err).Str("user_id", userID).Msg("profile.save.failed")
		a.fail(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	if err := a.Users.UpdatePublicMetadata(r.Context(), userID, metadata); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.fail(w, http.StatusUnauthorized, msgUnauthorized)
			return
		}
		a.log(r).Error().Err(err).Str("user_id", userID).Msg("profile.save.failed")
		a.fail(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	a.ok(w, http.StatusOK, profile)
}

// ProfileRoles lists the roles a user may choose.
func (a *App) ProfileRoles(w http.ResponseWriter, r *http.Request) {
	a.ok(w, http.StatusOK, domain.UserFacingRoleOptions())
}
