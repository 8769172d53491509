package models

import "time"

// Director describes a movie's director. Dates are stored as BSON dates
// under the catalog's existing field names.
type Director struct {
	Name  string     `json:"name"            bson:"name"`
	Bio   string     `json:"bio"             bson:"bio"`
	Birth *time.Time `json:"birth,omitempty" bson:"dob,omitempty"`
	Death *time.Time `json:"death,omitempty" bson:"death,omitempty"`
}

// Genre describes a movie genre.
type Genre struct {
	Name        string `json:"name"        bson:"name"`
	Description string `json:"description" bson:"description"`
}

// Movie is a catalog entry stored in MongoDB.
type Movie struct {
	ID          string   `json:"id"          bson:"-"`
	Title       string   `json:"title"       bson:"title"`
	Description string   `json:"description" bson:"description"`
	ImagePath   string   `json:"imagePath"   bson:"imagePath"`
	Featured    bool     `json:"featured"    bson:"featured"`
	Director    Director `json:"director"    bson:"director"`
	Genre       Genre    `json:"genre"       bson:"genre"`
}
