package models

// Product is a curtain system (mechanism type). Read-only reference data.
type Product struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:255;not null" json:"name"`
	Code string `gorm:"size:100;uniqueIndex;not null" json:"code"`

	Fabrics []Fabric `gorm:"many2many:product_fabrics;" json:"-"`
}

// Fabric is a purchasable material variant. Read-only reference data.
type Fabric struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	ColorName  string  `gorm:"size:255;not null" json:"color_name"`
	Code       string  `gorm:"size:100;not null;index" json:"code"`
	Collection string  `gorm:"size:255;not null;index" json:"collection"`
	SystemCode *string `gorm:"size:100" json:"system_code"`
}

// ProductFabric restricts which fabrics are selectable for a product.
type ProductFabric struct {
	ProductID uint `gorm:"primaryKey" json:"product_id"`
	FabricID  uint `gorm:"primaryKey" json:"fabric_id"`
}
