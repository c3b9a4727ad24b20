package user

import "time"

const (
	RoleLearner  = "learner"
	RoleEducator = "educator"
)

// User is a local projection of an identity-provider account. ID is the
// provider's subject id and is never generated here.
type User struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;not null" json:"name"`
	Email     string    `gorm:"column:email;index" json:"email"`
	ImageURL  string    `gorm:"column:image_url" json:"image_url"`
	Role      string    `gorm:"column:role;not null" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) IsEducator() bool {
	return u != nil && u.Role == RoleEducator
}

// NormalizeRole maps unknown roles to learner.
func NormalizeRole(role string) string {
	if role == RoleEducator {
		return RoleEducator
	}
	return RoleLearner
}
