// internal/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleCompany Role = "company"
	RoleMSME    Role = "msme"
)

func ValidRole(r Role) bool {
	switch r {
	case RoleCompany, RoleMSME:
		return true
	default:
		return false
	}
}

// User matches the document in the users collection.
type User struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Password    string             `bson:"password" json:"-"`
	Role        Role               `bson:"userType" json:"userType"`
	CompanyName string             `bson:"companyName" json:"companyName"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	GSTNumber   string             `bson:"gstNumber,omitempty" json:"gstNumber,omitempty"`
	PANNumber   string             `bson:"panNumber,omitempty" json:"panNumber,omitempty"`
	Location    *Location          `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// DisplayCompany is the name shown to the other side of the marketplace.
func (u *User) DisplayCompany() string {
	if u.CompanyName != "" {
		return u.CompanyName
	}
	return u.Name
}
