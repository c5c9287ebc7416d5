package selector

import (
	"strings"

	"github.com/mklemmingen/ComBadge-sub001/internal/entity"
	"github.com/mklemmingen/ComBadge-sub001/internal/intent"
)

// intentCategories maps each intent onto the catalog category that
// usually serves it.
var intentCategories = map[intent.Intent]string{
	intent.CreateResource:   "vehicle_operations",
	intent.ScheduleTask:     "maintenance",
	intent.MakeReservation:  "reservations",
	intent.AssignResource:   "vehicle_operations",
	intent.UpdateStatus:     "vehicle_operations",
	intent.QueryInformation: "vehicle_operations",
	intent.TransferResource: "vehicle_operations",
	intent.CancelOperation:  "reservations",
}

// intentKeywords feed the keyword-overlap part of intent alignment.
var intentKeywords = map[intent.Intent][]string{
	intent.CreateResource:   {"create", "register", "new", "vehicle"},
	intent.ScheduleTask:     {"maintenance", "service", "oil", "repair", "inspection"},
	intent.MakeReservation:  {"reserve", "booking", "reservation", "rent"},
	intent.AssignResource:   {"assign", "driver", "allocate"},
	intent.UpdateStatus:     {"status", "update", "mileage"},
	intent.QueryInformation: {"query", "report", "history", "list"},
	intent.TransferResource: {"transfer", "relocate", "depot"},
	intent.CancelOperation:  {"cancel", "booking", "reservation"},
}

// entityAliases maps a template's required-entity name onto the
// extractor types that can satisfy it.
var entityAliases = map[string][]entity.Type{
	"vehicle":        {entity.TypeVehicleID, entity.TypeVIN, entity.TypeLicensePlate},
	"vehicle_id":     {entity.TypeVehicleID, entity.TypeVIN},
	"vin":            {entity.TypeVIN},
	"license_plate":  {entity.TypeLicensePlate},
	"person":         {entity.TypePerson},
	"requested_by":   {entity.TypePerson, entity.TypeEmail},
	"assignee":       {entity.TypePerson, entity.TypeEmail},
	"email":          {entity.TypeEmail},
	"phone":          {entity.TypePhone},
	"date":           {entity.TypeDate},
	"scheduled_date": {entity.TypeDate},
	"time":           {entity.TypeTime},
	"scheduled_time": {entity.TypeTime},
	"location":       {entity.TypeLocation, entity.TypeBuilding},
	"building":       {entity.TypeBuilding},
	"maintenance_type": {entity.TypeMaintenanceType},
	"department":     {entity.TypeDepartment},
	"role":           {entity.TypeRole},
}

// entitySatisfies reports whether any extracted entity can fill the
// named requirement, via alias or direct type-name match.
func entitySatisfies(name string, extraction *entity.Result) bool {
	if types, ok := entityAliases[strings.ToLower(name)]; ok {
		for _, t := range types {
			if len(extraction.ByType[t]) > 0 {
				return true
			}
		}
		return false
	}
	return len(extraction.ByType[entity.Type(strings.ToLower(name))]) > 0
}
