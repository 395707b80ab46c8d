package roomhandler

type CreateRoomBody struct {
	Name     string `json:"name"      binding:"required"       example:"Friday standup"`
	Code     string `json:"code"      binding:"required,min=4" example:"ABC123"`
	UserName string `json:"user_name" binding:"required"       example:"alice"`
} // @name CreateRoomRequest

type JoinRoomBody struct {
	Code     string `json:"code"      binding:"required" example:"ABC123"`
	UserName string `json:"user_name" binding:"required" example:"bob"`
} // @name JoinRoomRequest

type ErrorResponse struct {
	Error string `json:"error"`
} // @name RoomErrorResponse
