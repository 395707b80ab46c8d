package roomhandler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"cybermeetgo/internal/services/room"
)

type Handler struct {
	svc room.IRoomService
}

func New(svc room.IRoomService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.POST("", h.create)
	r.POST("/join", h.join)
	r.GET("/by-code/:code", h.byCode)
}

// @Summary		Create a room
// @Description	Creates a room under a caller-chosen code; the caller becomes the first participant.
// @Tags			Rooms
// @Security		BearerAuth
// @Param			body	body		CreateRoomBody	true	"Room payload"
// @Success		200		{object}	room.RoomDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		409		{object}	ErrorResponse
// @Router			/api/rooms [post]
func (h *Handler) create(ginCtx *gin.Context) {
	var body CreateRoomBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	dto, err := h.svc.CreateRoom(ginCtx.Request.Context(),
		body.Name, body.Code, ginCtx.GetString("user_id"), body.UserName)
	if errors.Is(err, room.ErrCodeTaken) {
		ginCtx.JSON(http.StatusConflict, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, dto)
}

// @Summary		Join a room by code
// @Description	Adds the caller to the room's participant roster if not already present.
// @Tags			Rooms
// @Security		BearerAuth
// @Param			body	body		JoinRoomBody	true	"Join payload"
// @Success		200		{object}	room.RoomDTO
// @Failure		400		{object}	ErrorResponse
// @Failure		404		{object}	ErrorResponse
// @Router			/api/rooms/join [post]
func (h *Handler) join(ginCtx *gin.Context) {
	var body JoinRoomBody
	if err := ginCtx.ShouldBindJSON(&body); err != nil {
		ginCtx.JSON(http.StatusBadRequest, &ErrorResponse{Error: err.Error()})
		return
	}

	dto, err := h.svc.JoinRoom(ginCtx.Request.Context(),
		body.Code, ginCtx.GetString("user_id"), body.UserName)
	if errors.Is(err, room.ErrRoomNotFound) {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, dto)
}

// @Summary		Look a room up by code
// @Description	Returns the room record, used by clients to validate a code before joining.
// @Tags			Rooms
// @Security		BearerAuth
// @Param			code	path		string	true	"Room code"	default(ABC123)
// @Success		200		{object}	room.RoomDTO
// @Failure		404		{object}	ErrorResponse
// @Router			/api/rooms/by-code/{code} [get]
func (h *Handler) byCode(ginCtx *gin.Context) {
	dto, err := h.svc.GetByCode(ginCtx.Request.Context(), ginCtx.Param("code"))
	if errors.Is(err, room.ErrRoomNotFound) {
		ginCtx.JSON(http.StatusNotFound, &ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		ginCtx.JSON(http.StatusInternalServerError, &ErrorResponse{Error: err.Error()})
		return
	}
	ginCtx.JSON(http.StatusOK, dto)
}
