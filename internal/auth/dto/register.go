package dto

type RegisterInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type RegisterOutput struct {
	Message string `json:"message"`
	UserID  string `json:"userId"`
}
