// Package catalog implements the read-only vehicle model catalog and the
// post filter metadata: fetch-once caches with no client-side mutation.
package catalog

// Brand is a vehicle manufacturer.
type Brand struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo"`
	DateCreated string `json:"date_created"`
}

// HullType is a body style (sedan, wagon, ...).
type HullType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Fuel is a fuel kind with its display color.
type Fuel struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Engine is an engine variant of a model generation.
type Engine struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Capacity   int    `json:"capacity"`
	HorsePower int    `json:"horse_power"`
	Fuel       Fuel   `json:"fuel"`
}

// ModelGeneration is one generation of a vehicle model with its available
// configurations.
type ModelGeneration struct {
	ModelID         int64      `json:"model_id"`
	GenerationID    int64      `json:"generation_id"`
	DateCreated     string     `json:"date_created"`
	Brand           Brand      `json:"brand"`
	Model           string     `json:"model"`
	Generation      string     `json:"generation"`
	ProductionStart int        `json:"production_start"`
	ProductionEnd   int        `json:"production_end"`
	HullTypes       []HullType `json:"hull_types"`
	Image           string     `json:"image"`
	Engines         []Engine   `json:"engines"`
	PostsCount      int        `json:"posts_count"`
}

// BrandFilter is a brand with its models and generations, for filter menus.
type BrandFilter struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Models []struct {
		ID          int64  `json:"id"`
		Name        string `json:"name"`
		Generations []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"generations"`
	} `json:"models"`
}

// AuthorFilter is a post author, for filter menus.
type AuthorFilter struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Avatar *string `json:"avatar"`
}

// FiltersData is the filter metadata for the post list.
type FiltersData struct {
	Brands    []BrandFilter  `json:"brands"`
	Fuels     []Fuel         `json:"fuels"`
	HullTypes []HullType     `json:"hull_types"`
	Authors   []AuthorFilter `json:"authors"`
}
