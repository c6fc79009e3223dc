package models

// Unit is a space inside a building. Membership is tracked from the unit side
// only: Residents holds resident ids, residents carry no back-reference.
type Unit struct {
	UnitID     string `json:"unit_id" dynamodbav:"unit_id"`
	Name       string `json:"name" dynamodbav:"name"`
	BuildingID string `json:"building_id" dynamodbav:"building_id"`
	// Stored as a string set; DynamoDB has no empty sets, so none is omitted.
	Residents []string `json:"residents" dynamodbav:"residents,stringset,omitempty"`
	// UpdatedAt is epoch seconds of the last move-in / move-out, 0 until then.
	UpdatedAt int64 `json:"updated_at,omitempty" dynamodbav:"updated_at,omitempty"`
}

// HasResident reports whether residentID is in the unit's resident set.
func (u *Unit) HasResident(residentID string) bool {
	for _, id := range u.Residents {
		if id == residentID {
			return true
		}
	}
	return false
}

// AddResident set-adds residentID.
func (u *Unit) AddResident(residentID string) {
	if !u.HasResident(residentID) {
		u.Residents = append(u.Residents, residentID)
	}
}

// RemoveResident drops residentID from the set, keeping the order of the rest.
func (u *Unit) RemoveResident(residentID string) {
	kept := make([]string, 0, len(u.Residents))
	for _, id := range u.Residents {
		if id != residentID {
			kept = append(kept, id)
		}
	}
	u.Residents = kept
}
