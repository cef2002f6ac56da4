package model

// Phone is one case in the catalog. Once retained it is never edited
// in place; the catalog is reloaded wholesale after any append.
type Phone struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Brand       string  `json:"brand"`
	OS          string  `json:"os"`
	Price       float64 `json:"price"`
	RAM         float64 `json:"ram_gb"`
	Storage     float64 `json:"storage_gb"`
	ScreenSize  float64 `json:"screen_inches"`
	Battery     float64 `json:"battery_mah"`
	Rating      float64 `json:"rating"`
	CameraLabel string  `json:"camera"`              // free text, e.g. "108MP"
	CameraMP    float64 `json:"camera_mp,omitempty"` // derived from CameraLabel
	InStock     bool    `json:"in_stock"`
	Label       string  `json:"label,omitempty"` // evaluation category
}

// Attr returns the raw value of a canonical numeric attribute.
func (p Phone) Attr(a Attribute) float64 {
	switch a {
	case AttrPrice:
		return p.Price
	case AttrRAM:
		return p.RAM
	case AttrStorage:
		return p.Storage
	case AttrScreen:
		return p.ScreenSize
	case AttrBattery:
		return p.Battery
	case AttrRating:
		return p.Rating
	case AttrCamera:
		return p.CameraMP
	}
	return 0
}

// SetAttr stores a raw value into the field backing a canonical attribute.
func (p *Phone) SetAttr(a Attribute, v float64) {
	switch a {
	case AttrPrice:
		p.Price = v
	case AttrRAM:
		p.RAM = v
	case AttrStorage:
		p.Storage = v
	case AttrScreen:
		p.ScreenSize = v
	case AttrBattery:
		p.Battery = v
	case AttrRating:
		p.Rating = v
	case AttrCamera:
		p.CameraMP = v
	}
}

// MaxID returns the highest case identifier in the catalog, 0 when empty.
func MaxID(catalog []Phone) int {
	max := 0
	for _, p := range catalog {
		if p.ID > max {
			max = p.ID
		}
	}
	return max
}
