package dto

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	PIN      string `json:"pin"      validate:"required,min=4,max=8,numeric"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	ExpiresIn   int             `json:"expires_in"`
	User        UsuarioResponse `json:"user"`
}

type UsuarioResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Nombre   string `json:"nombre"`
	Rol      string `json:"rol"`
	Activo   bool   `json:"activo"`
}

type CrearUsuarioRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Nombre   string `json:"nombre"   validate:"required"`
	PIN      string `json:"pin"      validate:"required,min=4,max=8,numeric"`
	Rol      string `json:"rol"      validate:"required,oneof=cajero supervisor administrador"`
}
