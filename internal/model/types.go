package model

import "time"

type BeverageCategory string

const (
	CategoryCoffee BeverageCategory = "coffee"
	CategoryTea    BeverageCategory = "tea"
	CategoryEnergy BeverageCategory = "energy"
	CategorySoda   BeverageCategory = "soda"
	CategoryOther  BeverageCategory = "other"
)

type UnitPreference string

const (
	UnitOz  UnitPreference = "oz"
	UnitMl  UnitPreference = "ml"
	UnitCup UnitPreference = "cup"
)

// Beverage is read-only catalog data. ServingSizeOz is nil for items whose
// volume was never recorded.
type Beverage struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Category      BeverageCategory `json:"category"`
	CaffeineMg    int              `json:"caffeine_mg"`
	ServingSize   string           `json:"serving_size"`
	ServingSizeOz *float64         `json:"serving_size_oz,omitempty"`
}

// CaffeineEntry is one logged drink. BeverageName and ServingSize are a
// snapshot taken when the entry was created.
type CaffeineEntry struct {
	ID             string    `json:"id"`
	OwnerID        string    `json:"owner_id"`
	BeverageID     string    `json:"beverage_id"`
	BeverageName   string    `json:"beverage_name"`
	ServingSize    string    `json:"serving_size"`
	CaffeineAmount int       `json:"caffeine_mg"`
	Timestamp      time.Time `json:"timestamp"`
	Notes          string    `json:"notes,omitempty"`
}

type Preferences struct {
	OwnerID        string         `json:"owner_id"`
	UnitPreference UnitPreference `json:"unit_preference"`
}

type AdvisorySource string

const (
	AdvisorySourceRules  AdvisorySource = "rules"
	AdvisorySourceRemote AdvisorySource = "remote"
)

type Advisory struct {
	Summary         string         `json:"summary"`
	Recommendations []string       `json:"recommendations"`
	Concerns        []string       `json:"concerns"`
	Source          AdvisorySource `json:"source"`
}
