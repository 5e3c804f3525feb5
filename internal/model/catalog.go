package model

// BoxSize describes one orderable box.
//
// Fields:
//  Pieces           – macarons in the box; also the capacity units consumed.
//  Price            – box price in MAD.
//  MaxFlavors       – flavors the shopper may pick; 0 means a fixed assortment.
//  RegionRestricted – only orderable from cities in the Rabat–Salé region.
type BoxSize struct {
	Pieces           int    `json:"pieces"`
	Price            int    `json:"price"`
	Label            string `json:"label"`
	MaxFlavors       int    `json:"max_flavors"`
	RegionRestricted bool   `json:"region_restricted"`
	BestSeller       bool   `json:"best_seller,omitempty"`
}

// Flavor is a macaron flavor with its French and Arabic names.
type Flavor struct {
	Name   string `json:"name"`
	NameAr string `json:"name_ar"`
}

// City is a delivery destination.
type City struct {
	Name          string `json:"name"`
	NameAr        string `json:"name_ar"`
	DeliveryHours int    `json:"delivery_hours"`
	DeliveryPrice int    `json:"delivery_price"`
	InRegion      bool   `json:"in_region"`
}
