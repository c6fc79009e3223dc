package models

// Building is the top of the containment tree. Units reference it through
// their BuildingID; nothing on the building itself points down.
type Building struct {
	BuildingID string `json:"building_id" dynamodbav:"building_id"`
	Name       string `json:"name" dynamodbav:"name"`
}
