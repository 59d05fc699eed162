package models

// LocationType is the administrative level of a location
type LocationType string

const (
	LocationProvince LocationType = "province"
	LocationCommune  LocationType = "commune"
	LocationColline  LocationType = "colline"
)

// Location is one node of the administrative hierarchy
// (colline -> commune -> province). Field records always reference a
// colline; filtering by commune or province resolves the subtree first.
type Location struct {
	ID       uint         `gorm:"primaryKey;autoIncrement" json:"id"`
	Name     string       `gorm:"type:varchar(255);not null;index" json:"name"`
	Type     LocationType `gorm:"type:varchar(20);not null;index" json:"type"`
	ParentID *uint        `gorm:"type:bigint;index" json:"parent_id,omitempty"`
}

// TableName specifies the table name
func (Location) TableName() string {
	return "locations"
}
