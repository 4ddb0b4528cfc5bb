package models

// Call is a scheduled phone call with a lead.
type Call struct {
	Base  `bson:",inline"`
	Owner `bson:",inline"`

	Address string `bson:"address" json:"address" validate:"required"`
	Date    string `bson:"date" json:"date" validate:"required"`
}

// Visit is an in-store visit booked by a lead.
type Visit struct {
	Base  `bson:",inline"`
	Owner `bson:",inline"`

	Store string `bson:"store" json:"store" validate:"required"`
	Date  string `bson:"date" json:"date" validate:"required"`
}
