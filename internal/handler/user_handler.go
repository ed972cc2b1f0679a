package handler

import (
	"net/http"
	"time"

	"parlor/internal/pkg/auth/jwt"
	"parlor/internal/pkg/errs"
	"parlor/internal/pkg/logx"
	"parlor/internal/pkg/randx"
	"parlor/internal/pkg/resp"
)

// HandleGetUserProfile returns the authenticated caller's profile. Guest
// identities are served straight from the token; registered users get the
// current database row.
func HandleGetUserProfile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if identity.Guest || randx.IsGuestID(identity.ID) {
			resp.RespondSuccess(w, r, map[string]any{
				"user": map[string]any{
					"id":       identity.ID,
					"username": identity.Username,
					"avatar":   identity.Avatar,
					"bio":      identity.Bio,
					"guest":    true,
				},
			})
			return
		}

		record, err := deps.Store.UserByID(r.Context(), identity.ID)
		if err != nil {
			logx.Warn("get_user_profile: user not found", "id", identity.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"user": map[string]any{
				"id":          record.ID,
				"username":    record.Username,
				"avatar":      record.Avatar,
				"bio":         record.Bio,
				"guest":       false,
				"lastLoginAt": record.LastLoginAt.Format(time.RFC3339),
			},
		})
	}
}
