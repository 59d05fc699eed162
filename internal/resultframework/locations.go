package resultframework

import (
	"fmt"

	"gorm.io/gorm"

	"monitoring-portal/internal/models"
)

// ResolveSubtree returns the ids of all locations under the given node,
// including the node itself. Field records reference collines, so filtering
// by a commune or province means matching every descendant colline.
func ResolveSubtree(db *gorm.DB, locationID uint) ([]uint, error) {
	var root models.Location
	if err := db.First(&root, locationID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("location %d not found", locationID)
		}
		return nil, err
	}

	ids := []uint{root.ID}
	frontier := []uint{root.ID}
	// The hierarchy is three levels deep at most, so a breadth-first walk
	// terminates after a couple of queries.
	for len(frontier) > 0 {
		var children []models.Location
		if err := db.Where("parent_id IN ?", frontier).Find(&children).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, c := range children {
			ids = append(ids, c.ID)
			frontier = append(frontier, c.ID)
		}
	}
	return ids, nil
}

// AncestorChain returns the location and its ancestors up to the province,
// closest first.
func AncestorChain(db *gorm.DB, locationID uint) ([]models.Location, error) {
	var chain []models.Location
	id := &locationID
	for id != nil {
		var loc models.Location
		if err := db.First(&loc, *id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				break
			}
			return nil, err
		}
		chain = append(chain, loc)
		id = loc.ParentID
	}
	return chain, nil
}

// ancestorOfType walks up from the given location to the first ancestor
// of the requested administrative level, returning 0 when none exists.
func ancestorOfType(db *gorm.DB, locationID uint, t models.LocationType) uint {
	chain, err := AncestorChain(db, locationID)
	if err != nil {
		return 0
	}
	for _, loc := range chain {
		if loc.Type == t {
			return loc.ID
		}
	}
	return 0
}
