package model

// Customer is an optional identity attached to a sale, looked up (or created)
// by phone number at sale time. Phone is indexed but deliberately not unique;
// when several rows share a phone the first match wins.
type Customer struct {
	BaseModel
	Name  string `gorm:"type:varchar(200)" json:"name"`
	Phone string `gorm:"type:varchar(30);index;not null" json:"phone" validate:"required"`
	Email string `gorm:"type:varchar(255)" json:"email" validate:"omitempty,email"`
}
