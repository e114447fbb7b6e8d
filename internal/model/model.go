// Package model defines the energy audit entities moved between databases.
package model

// Table names shared by the source and destination schemas.
const (
	TableBuilding    = "building"
	TableOpening     = "opening"
	TableRoom        = "room"
	TableRoomOpening = "room_opening"
	TableSolarPanel  = "solar_panel"
	TableUtility     = "utility"
)

// Tables lists every migrated table in foreign-key dependency order.
var Tables = []string{
	TableBuilding,
	TableOpening,
	TableRoom,
	TableRoomOpening,
	TableSolarPanel,
	TableUtility,
}

// Building is the root entity, keyed by its natural code.
type Building struct {
	Code               string `json:"code"`
	DossierID          int64  `json:"dossier_id"`
	Address            string `json:"address"`
	ConstructionYear   *int64 `json:"construction_year,omitempty"`
	RenovationYear     *int64 `json:"renovation_year,omitempty"`
	RoofInsulation     bool   `json:"roof_insulation"`
	ExternalInsulation bool   `json:"external_insulation"`
}

// Opening is a window or door, keyed by (Code, BuildingCode).
type Opening struct {
	Code         string  `json:"code"`
	BuildingCode string  `json:"building_code"`
	Type         string  `json:"type"`
	Height       int64   `json:"height"`
	Width        int64   `json:"width"`
	Material     *string `json:"material,omitempty"`
	Glazing      *string `json:"glazing,omitempty"`
}

// Room is a space inside a building. ID is assigned by whichever database
// holds the row, so it differs between source and destination.
type Room struct {
	ID            int64    `json:"id"`
	BuildingCode  string   `json:"building_code"`
	Floor         string   `json:"floor"`
	SpaceID       int64    `json:"space_id"`
	RoomCode      string   `json:"room_code"`
	Usage         string   `json:"usage"`
	Height        *float64 `json:"height,omitempty"`
	WallThickness *float64 `json:"wall_thickness,omitempty"`
	Heating       *string  `json:"heating,omitempty"`
	Cooling       *string  `json:"cooling,omitempty"`
	Lighting      *string  `json:"lighting,omitempty"`
}

// RoomOpening links an opening to a room. Quantity is how many identical
// openings the room has and is always positive.
type RoomOpening struct {
	OpeningCode  string `json:"opening_code"`
	BuildingCode string `json:"building_code"`
	RoomID       int64  `json:"room_id"`
	Quantity     int64  `json:"quantity"`
}

// SolarPanel is a photovoltaic installation on a building.
type SolarPanel struct {
	ID           int64   `json:"id"`
	BuildingCode string  `json:"building_code"`
	Power        float64 `json:"power"`
	Owner        string  `json:"owner"`
}

// UtilityKind is the closed set of utility connection types.
type UtilityKind string

const (
	UtilityWater    UtilityKind = "water"
	UtilityElectric UtilityKind = "electric"
	UtilityHeating  UtilityKind = "heating"
)

// Utility is a metered utility connection with a typed kind.
type Utility struct {
	ID           int64       `json:"id"`
	BuildingCode string      `json:"building_code"`
	Kind         UtilityKind `json:"kind"`
	MeterCode    string      `json:"meter_code"`
	MeterAddress *string     `json:"meter_address,omitempty"`
}

// UtilityRow is a utility connection as stored in a source file, where the
// kind is still free text.
type UtilityRow struct {
	ID           int64
	BuildingCode string
	Type         string
	MeterCode    string
	MeterAddress *string
}
