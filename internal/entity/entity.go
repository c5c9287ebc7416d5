// Package entity extracts structured fleet entities from request text.
package entity

// Type identifies the kind of entity found in a request.
type Type string

const (
	TypeVehicleID       Type = "vehicle_id"
	TypeVIN             Type = "vin"
	TypeLicensePlate    Type = "license_plate"
	TypePerson          Type = "person"
	TypeEmail           Type = "email"
	TypePhone           Type = "phone"
	TypeDate            Type = "date"
	TypeTime            Type = "time"
	TypeLocation        Type = "location"
	TypeMaintenanceType Type = "maintenance_type"
	TypeBuilding        Type = "building"
	TypeDepartment      Type = "department"
	TypeRole            Type = "role"
)

// importanceWeights rank entity types for the overall confidence mean.
var importanceWeights = map[Type]float64{
	TypeVIN:             1.0,
	TypeVehicleID:       0.9,
	TypeLicensePlate:    0.85,
	TypeEmail:           0.8,
	TypeDate:            0.8,
	TypePhone:           0.7,
	TypeTime:            0.7,
	TypeMaintenanceType: 0.7,
	TypePerson:          0.6,
	TypeLocation:        0.6,
	TypeBuilding:        0.5,
	TypeDepartment:      0.4,
	TypeRole:            0.3,
}

// Entity is a single extracted value with provenance. ValidationPassed
// records whether normalization and the format check both succeeded;
// the confidence penalty alone does not capture that.
type Entity struct {
	Type             Type    `json:"type"`
	Value            string  `json:"value"`
	Raw              string  `json:"raw"`
	Confidence       float64 `json:"confidence"`
	Start            int     `json:"start"`
	End              int     `json:"end"`
	Context          string  `json:"context,omitempty"`
	Method           string  `json:"method"`
	ValidationPassed bool    `json:"validationPassed"`
	ValidationReason string  `json:"validationReason,omitempty"`
}

// Result is the extraction outcome for one request.
type Result struct {
	Entities          []Entity          `json:"entities"`
	ByType            map[Type][]Entity `json:"byType"`
	OverallConfidence float64           `json:"overallConfidence"`
	Notes             []string          `json:"notes,omitempty"`
}

// Best returns the highest-confidence entity of the given type, if any.
func (r *Result) Best(t Type) (Entity, bool) {
	candidates := r.ByType[t]
	if len(candidates) == 0 {
		return Entity{}, false
	}
	best := candidates[0]
	for _, e := range candidates[1:] {
		if e.Confidence > best.Confidence {
			best = e
		}
	}
	return best, true
}
