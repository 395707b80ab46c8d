package authhandler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"cybermeetgo/internal/services/auth"
)

type Handler struct {
	svc auth.IAuthService
}

func New(svc auth.IAuthService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/register", h.register)
	r.POST("/login", h.login)
}

// Bearer guards a route group: it rejects requests without a valid bearer
// token and stores the caller's user ID in the gin context.
func Bearer(svc auth.IAuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		userID, err := svc.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			return
		}
		c.Set("user_id", userID)
		c.Next()
	}
}

// @Summary		Register a new account
// @Description	Creates a user and returns a session token.
// @Tags			Auth
// @Param			body	body		CredentialsBody	true	"Credentials"
// @Success		200		{object}	auth.Session
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/api/auth/register [post]
func (h *Handler) register(ginCtx *gin.Context) {
	var body CredentialsBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.svc.Register(ginCtx.Request.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrUsernameTaken) {
		ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, session)
}

// @Summary		Log in
// @Description	Verifies credentials and returns a session token.
// @Tags			Auth
// @Param			body	body		CredentialsBody	true	"Credentials"
// @Success		200		{object}	auth.Session
// @Failure		400		{object}	ErrorResponse
// @Failure		401		{object}	ErrorResponse
// @Router			/api/auth/login [post]
func (h *Handler) login(ginCtx *gin.Context) {
	var body CredentialsBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.svc.Login(ginCtx.Request.Context(), body.Username, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		ginCtx.JSON(http.StatusUnauthorized, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, session)
}
