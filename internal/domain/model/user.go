package model

// User 身分提供者的本地鏡像, ID 沿用 token 內的 sub
type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Username  string `gorm:"type:varchar(150);not null;uniqueIndex" json:"username"`
	Email     string `gorm:"type:varchar(254)" json:"email"`
	FirstName string `gorm:"type:varchar(150)" json:"first_name"`
	LastName  string `gorm:"type:varchar(150)" json:"last_name"`
	IsStaff   bool   `gorm:"not null;default:false" json:"is_staff"`
	IsActive  bool   `gorm:"not null;default:false" json:"is_active"`
	BaseModel
}

type Profile struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	UserID         uint   `gorm:"not null;uniqueIndex" json:"user_id"`
	User           *User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	ProfilePicture string `gorm:"type:varchar(255)" json:"profile_picture"`
	BaseModel
}
