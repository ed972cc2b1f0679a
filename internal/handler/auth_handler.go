/*
Package handler provides HTTP handler functions for authentication and account management.
*/
package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"parlor/internal/app/store"
	"parlor/internal/pkg/auth/jwt"
	"parlor/internal/pkg/errs"
	"parlor/internal/pkg/logx"
	"parlor/internal/pkg/pow"
	"parlor/internal/pkg/randx"
	"parlor/internal/pkg/req"
	"parlor/internal/pkg/resp"
)

var validate = validator.New()

type CredentialsInput struct {
	Username string `json:"username" validate:"required,min=2,max=16,alphanum"`
	Password string `json:"password" validate:"required,min=6,max=50"`
}

// HandlePowChallenge issues a Proof-of-Work nonce for the guest login flow.
func HandlePowChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nonce := deps.Pow.GenerateNonce()

		resp.RespondSuccess(w, r, map[string]any{
			"nonce":      nonce,
			"difficulty": deps.Config.PowDifficulty,
		})
	}
}

type PowProofInput struct {
	Nonce   string `json:"nonce" validate:"required"`
	Counter string `json:"counter" validate:"required"`
}

// HandlePowVerify validates a submitted proof and exchanges it for a
// short-lived proof token accepted by the guest login endpoint.
func HandlePowVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PowProofInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := validate.Struct(input); err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.Pow.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			logx.Warn("PoW proof rejected", "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"proofToken": token,
			"expiresIn":  int(pow.ProofTokenDuration.Seconds()),
		})
	}
}

// HandleRegister creates a new user account from a username and password
// and issues an identity token for it.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input CredentialsInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := validate.Struct(input); err != nil {
			for _, fieldErr := range err.(validator.ValidationErrors) {
				if fieldErr.Field() == "Password" {
					resp.RespondError(w, r, errs.NewError(errs.ErrInvalidPassword))
					return
				}
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidUsername))
			return
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		record, err := deps.Store.CreateUser(r.Context(), input.Username, string(hashedPassword))
		if err != nil {
			if store.IsUniqueViolation(err) {
				logx.Warn("registration conflict: username already exists", "username", input.Username)
				resp.RespondError(w, r, errs.NewError(errs.ErrUserAlreadyExists))
				return
			}

			logx.Error(err, "failed to create user in database")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		respondWithIdentity(w, r, deps, record)
	}
}

// HandleLogin verifies user credentials and issues an identity token.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		var input CredentialsInput
		if customErr := req.BindJSON(r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		record, err := deps.Store.UserByUsername(r.Context(), input.Username)
		if err != nil {
			logx.Warn("login: user fetch failed", "username", input.Username, "error", err)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(record.PasswordHash), []byte(input.Password)); err != nil {
			logx.Warn("login: password mismatch", "username", input.Username)
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		respondWithIdentity(w, r, deps, record)
	}
}

// HandleGuestLogin issues a guest identity token with a generated name.
// The request must carry a valid PoW proof token.
func HandleGuestLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if payload := jwt.GetPayloadFromContext(r); payload != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrAlreadyLoggedIn))
			return
		}

		if !deps.Pow.CheckProofToken(r) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}

		id, err := randx.GuestID()
		if err != nil {
			logx.Error(err, "failed to generate guest id")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		nickname, err := randx.GuestNickname()
		if err != nil {
			logx.Error(err, "failed to generate guest nickname")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		payload := &jwt.Payload{
			ID:       id,
			Username: nickname,
			Avatar:   0,
			Bio:      "",
			Guest:    true,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.GuestIdentityExpiration)
		if err != nil {
			logx.Error(err, "failed to generate guest token")
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
			"user": map[string]any{
				"id":       id,
				"username": nickname,
				"avatar":   0,
				"bio":      "",
				"guest":    true,
			},
		})
	}
}

// respondWithIdentity updates the login timestamp, signs a token for the
// stored user, and writes the standard auth response.
func respondWithIdentity(w http.ResponseWriter, r *http.Request, deps *AppDeps, record *store.UserRecord) {
	if err := deps.Store.UpdateLastLogin(r.Context(), record.ID); err != nil {
		logx.Error(err, "failed to update last_login_at", "user_id", record.ID)
	}

	payload := &jwt.Payload{
		ID:       record.ID,
		Username: record.Username,
		Avatar:   record.Avatar,
		Bio:      record.Bio,
		Guest:    false,
	}

	token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.UserIdentityExpiration)
	if err != nil {
		logx.Error(err, "failed to generate identity token", "user_id", record.ID)
		resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
		return
	}

	resp.RespondSuccess(w, r, map[string]any{
		"token": token,
		"user": map[string]any{
			"id":          record.ID,
			"username":    record.Username,
			"avatar":      record.Avatar,
			"bio":         record.Bio,
			"guest":       false,
			"lastLoginAt": time.Now().Format(time.RFC3339),
		},
	})
}
