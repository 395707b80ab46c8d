package authhandler

type CredentialsBody struct {
	Username string `json:"username" binding:"required,min=3"  example:"alice"`
	Password string `json:"password" binding:"required,min=6"  example:"s3cret!"`
} // @name CredentialsRequest

type ErrorResponse struct {
	Error string `json:"error"`
} // @name AuthErrorResponse
