package request

type CreateUser struct {
	TenantID   string   `json:"tenant_id" validate:"required"`
	Name       string   `json:"name" validate:"required"`
	Email      string   `json:"email" validate:"required,email"`
	Department string   `json:"department"`
	Skills     []string `json:"skills"`
	IsActive   *bool    `json:"is_active"`
}
