package auth

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=255" example:"user@example.com"`
	Password string `json:"password" binding:"required,min=6,max=100" example:"Secret123"`
	Name     string `json:"name" binding:"required,max=255" example:"Ivan"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"Secret123"`
}

// UserInfo 对外暴露的用户信息
type UserInfo struct {
	ID    uint   `json:"id" example:"1"`
	Email string `json:"email" example:"user@example.com"`
	Name  string `json:"name" example:"Ivan"`
	Role  string `json:"role" example:"user"`
}

// AuthResponse 注册与登录的响应
type AuthResponse struct {
	Success bool     `json:"success"`
	Token   string   `json:"token"`
	User    UserInfo `json:"user"`
}

type MeResponse struct {
	Success bool     `json:"success"`
	User    UserInfo `json:"user"`
}
