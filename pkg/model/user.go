package model

import (
	"time"
)

// User is the stored identity a reservation is created under. The engine
// only needs existence and role; profile fields ride along for display.
type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=1,max=120"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Phone     string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Role      string    `json:"role" bson:"role" validate:"omitempty,oneof=GUEST ADMIN"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
