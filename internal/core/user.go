package core

import (
	"context"
	"fmt"

	"github.com/edvin/flowline/internal/model"
)

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) Create(ctx context.Context, user *model.User) error {
	skills, err := marshalJSON(user.Skills)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, tenant_id, name, email, department, skills, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.TenantID, user.Name, user.Email, user.Department,
		skills, user.IsActive, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserService) List(ctx context.Context, tenantID string) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, name, email, department, skills, is_active, created_at
		 FROM users WHERE tenant_id = $1 ORDER BY created_at, id`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var skills []byte
		if err := rows.Scan(&u.ID, &u.TenantID, &u.Name, &u.Email, &u.Department,
			&skills, &u.IsActive, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if u.Skills, err = unmarshalStrings(skills); err != nil {
			return nil, fmt.Errorf("user %s skills: %w", u.ID, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
