package dto

// RegisterReq 注册请求
type RegisterReq struct {
	Username string `json:"username" validate:"required,min=3,max=50" comment:"用户名"`
	Email    string `json:"email" validate:"omitempty,email" comment:"邮箱"`
	Password string `json:"password" validate:"required,min=6,max=72" comment:"密码"`
}

// LoginReq 登录请求
type LoginReq struct {
	Username string `json:"username" validate:"required" comment:"用户名"`
	Password string `json:"password" validate:"required" comment:"密码"`
}
