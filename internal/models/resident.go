package models

type Resident struct {
	ResidentID string `json:"resident_id" dynamodbav:"resident_id"`
	Name       string `json:"name" dynamodbav:"name"`
}
