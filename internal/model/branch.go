package model

// Branch is a physical store location. Stock lots and sales always belong to
// exactly one branch.
type Branch struct {
	BaseModel
	Name    string `gorm:"type:varchar(120);uniqueIndex;not null" json:"name" validate:"required"`
	Address string `gorm:"type:text" json:"address"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
}

// Supplier is where a stock lot was purchased from. Optional on a lot.
type Supplier struct {
	BaseModel
	Name    string `gorm:"type:varchar(200);not null" json:"name" validate:"required"`
	Contact string `gorm:"type:varchar(200)" json:"contact"`
}
