package generator

import (
	"strings"

	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
)

// fieldEntityTypes maps template field names onto the entity types that
// can fill them directly.
var fieldEntityTypes = map[string][]entity.Type{
	"vehicle":          {entity.TypeVehicleID, entity.TypeVIN, entity.TypeLicensePlate},
	"vehicle_id":       {entity.TypeVehicleID, entity.TypeVIN},
	"vin":              {entity.TypeVIN},
	"license_plate":    {entity.TypeLicensePlate},
	"person":           {entity.TypePerson},
	"requested_by":     {entity.TypePerson, entity.TypeEmail},
	"assigned_to":      {entity.TypePerson, entity.TypeEmail},
	"driver":           {entity.TypePerson},
	"email":            {entity.TypeEmail},
	"contact_email":    {entity.TypeEmail},
	"phone":            {entity.TypePhone},
	"contact_phone":    {entity.TypePhone},
	"date":             {entity.TypeDate},
	"scheduled_date":   {entity.TypeDate},
	"start_date":       {entity.TypeDate},
	"end_date":         {entity.TypeDate},
	"reservation_date": {entity.TypeDate},
	"time":             {entity.TypeTime},
	"scheduled_time":   {entity.TypeTime},
	"start_time":       {entity.TypeTime},
	"end_time":         {entity.TypeTime},
	"location":         {entity.TypeLocation, entity.TypeBuilding},
	"destination":      {entity.TypeLocation, entity.TypeBuilding},
	"building":         {entity.TypeBuilding},
	"maintenance_type": {entity.TypeMaintenanceType},
	"service_type":     {entity.TypeMaintenanceType},
	"department":       {entity.TypeDepartment},
	"role":             {entity.TypeRole},
}

// substringTypes resolve a field by name fragment when no direct
// mapping exists.
var substringTypes = []struct {
	Fragment string
	Type     entity.Type
}{
	{"vehicle", entity.TypeVehicleID},
	{"vin", entity.TypeVIN},
	{"plate", entity.TypeLicensePlate},
	{"person", entity.TypePerson},
	{"email", entity.TypeEmail},
	{"phone", entity.TypePhone},
	{"date", entity.TypeDate},
	{"time", entity.TypeTime},
	{"location", entity.TypeLocation},
	{"building", entity.TypeBuilding},
	{"department", entity.TypeDepartment},
}

// lookupEntity resolves the best entity for a field name: direct table
// first, then substring match, highest confidence wins.
func lookupEntity(name string, extraction *entity.Result) (entity.Entity, bool) {
	lower := strings.ToLower(name)

	if types, ok := fieldEntityTypes[lower]; ok {
		return bestOf(types, extraction)
	}

	for _, st := range substringTypes {
		if strings.Contains(lower, st.Fragment) {
			if e, ok := bestOf([]entity.Type{st.Type}, extraction); ok {
				return e, true
			}
		}
	}
	return entity.Entity{}, false
}

func bestOf(types []entity.Type, extraction *entity.Result) (entity.Entity, bool) {
	var best entity.Entity
	found := false
	for _, t := range types {
		if e, ok := extraction.Best(t); ok {
			if !found || e.Confidence > best.Confidence {
				best = e
				found = true
			}
		}
	}
	return best, found
}

// boolFieldFragments mark field names that default to false.
var boolFieldFragments = []string{"is_", "has_", "active", "enabled", "confirmed", "urgent"}

func isBoolField(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range boolFieldFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

func isTimestampField(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "timestamp") ||
		strings.HasSuffix(lower, "_at") ||
		strings.Contains(lower, "created") ||
		strings.Contains(lower, "updated")
}
