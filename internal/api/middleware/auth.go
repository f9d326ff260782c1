package middleware

import (
	"context"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rohits-web03/dropkeep/internal/config"
	"github.com/rohits-web03/dropkeep/internal/upload"
	"github.com/rohits-web03/dropkeep/internal/utils"
)

type contextKey string

const ActorKey contextKey = "actor"

var jwtSecret = config.Envs.JWTSecret

// SecurityHeader must carry the per-session CSRF value embedded in the auth
// token on every state-changing request. The widget copies it from the host
// form.
const SecurityHeader = "X-SecurityID"

// AuthMiddleware authenticates the session JWT (issued by an external auth
// layer) and enforces the CSRF double-submit check. On success the request
// context carries an upload.Actor with the uploader identity and session id.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		tokenStr, err := r.Cookie("token")
		if err != nil {
			unauthorized(w)
			return
		}

		token, err := jwt.Parse(tokenStr.Value, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			unauthorized(w)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(w)
			return
		}

		userID, _ := claims["sub"].(string)
		sessionID, _ := claims["sid"].(string)
		csrf, _ := claims["csrf"].(string)
		if userID == "" || sessionID == "" {
			unauthorized(w)
			return
		}

		// Double-submit check for anything that mutates state.
		switch r.Method {
		case http.MethodGet, http.MethodHead:
		default:
			if csrf == "" || r.Header.Get(SecurityHeader) != csrf {
				utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
					Success: false,
					Message: "Invalid token",
				})
				return
			}
		}

		actor := upload.Actor{ID: userID, SessionID: sessionID}
		ctx := context.WithValue(r.Context(), ActorKey, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ActorFrom extracts the authenticated actor placed by AuthMiddleware.
func ActorFrom(ctx context.Context) (upload.Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(upload.Actor)
	return actor, ok
}

func unauthorized(w http.ResponseWriter) {
	utils.JSONResponse(w, http.StatusUnauthorized, utils.Payload{
		Success: false,
		Message: "Unauthorized",
	})
}
