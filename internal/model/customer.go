package model

import "strings"

type Customer struct {
	BaseModel
	FirstName string  `db:"first_name" json:"first_name"`
	LastName  string  `db:"last_name" json:"last_name"`
	Phone     string  `db:"phone" json:"phone"`
	Email     *string `db:"email" json:"email"`
	Address   *string `db:"address" json:"address"`
	CreatedBy *string `db:"created_by" json:"created_by"`
}

func (c Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
