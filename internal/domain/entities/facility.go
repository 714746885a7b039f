package entities

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Column names in the facility dataset. The CSV header uses these keys.
const (
	ColName             = "name"
	ColDescription      = "description"
	ColFacilityType     = "facilityTypeId"
	ColOrganizationType = "organization_type"
	ColSpecialties      = "specialties"
	ColProcedure        = "procedure"
	ColEquipment        = "equipment"
	ColCapability       = "capability"
	ColCapacity         = "capacity"
	ColAddressLine1     = "address_line1"
	ColAddressLine2     = "address_line2"
	ColCity             = "address_city"
	ColRegion           = "address_stateOrRegion"
	ColCountry          = "address_country"
	ColPhoneNumbers     = "phone_numbers"
	ColEmail            = "email"
	ColWebsites         = "websites"
	ColLatitude         = "latitude"
	ColLongitude        = "longitude"
)

// Facility represents one row of the facility dataset. Every attribute is
// free text and may be empty or a sentinel ("null", "[]"). There is no unique
// key in the source; identity is the name plus row position, and ID is a
// process-local identifier assigned at load time.
type Facility struct {
	ID  string
	Row int

	Name             string
	Description      string
	FacilityType     string
	OrganizationType string
	Specialties      string
	Procedure        string
	Equipment        string
	Capability       string
	Capacity         string

	AddressLine1 string
	AddressLine2 string
	City         string
	Region       string
	Country      string

	PhoneNumbers string
	Email        string
	Websites     string

	Latitude  string
	Longitude string

	// Raw holds the full source row keyed by column name, including columns
	// not mapped to a struct field (used for schema-dependent checks such as
	// social media presence).
	Raw map[string]string
}

// Field returns the raw value of a column.
func (f *Facility) Field(col string) string {
	if f.Raw != nil {
		if v, ok := f.Raw[col]; ok {
			return v
		}
	}
	switch col {
	case ColName:
		return f.Name
	case ColDescription:
		return f.Description
	case ColFacilityType:
		return f.FacilityType
	case ColOrganizationType:
		return f.OrganizationType
	case ColSpecialties:
		return f.Specialties
	case ColProcedure:
		return f.Procedure
	case ColEquipment:
		return f.Equipment
	case ColCapability:
		return f.Capability
	case ColCapacity:
		return f.Capacity
	case ColAddressLine1:
		return f.AddressLine1
	case ColAddressLine2:
		return f.AddressLine2
	case ColCity:
		return f.City
	case ColRegion:
		return f.Region
	case ColCountry:
		return f.Country
	case ColPhoneNumbers:
		return f.PhoneNumbers
	case ColEmail:
		return f.Email
	case ColWebsites:
		return f.Websites
	case ColLatitude:
		return f.Latitude
	case ColLongitude:
		return f.Longitude
	}
	return ""
}

// HasColumn reports whether the source row carried the column at all,
// regardless of its value.
func (f *Facility) HasColumn(col string) bool {
	if f.Raw == nil {
		return false
	}
	_, ok := f.Raw[col]
	return ok
}

// IsPresent reports whether a field value counts as present: non-empty after
// trimming and not a sentinel.
func IsPresent(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" || v == "[]" {
		return false
	}
	return !strings.EqualFold(v, "null")
}

// Present reports whether any of the given columns is present on the record.
func (f *Facility) Present(cols ...string) bool {
	for _, col := range cols {
		if IsPresent(f.Field(col)) {
			return true
		}
	}
	return false
}

// ContentText joins the given columns into one lowercase string for
// substring matching.
func (f *Facility) ContentText(cols ...string) string {
	parts := make([]string, 0, len(cols))
	for _, col := range cols {
		parts = append(parts, f.Field(col))
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Coords returns the record's explicit coordinates when both columns parse
// as floats.
func (f *Facility) Coords() (lat, lon float64, ok bool) {
	latS := strings.TrimSpace(f.Latitude)
	lonS := strings.TrimSpace(f.Longitude)
	if latS == "" || lonS == "" {
		return 0, 0, false
	}
	lat, errLat := strconv.ParseFloat(latS, 64)
	lon, errLon := strconv.ParseFloat(lonS, 64)
	if errLat != nil || errLon != nil {
		return 0, 0, false
	}
	return lat, lon, true
}

// ParseListField parses a JSON- or Python-literal-style list embedded in a
// text field. Returns nil when the value is empty, not list-shaped, or
// unparseable; callers fall back to the raw text.
func ParseListField(v string) []string {
	raw := strings.TrimSpace(v)
	if !IsPresent(raw) {
		return nil
	}
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil
	}
	var parsed []any
	if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
		return stringifyList(parsed)
	}
	// Python-style literal list: single quotes. Normalizing quotes covers the
	// common case; items containing apostrophes fall through to raw text.
	normalized := strings.ReplaceAll(raw, "'", `"`)
	if err := json.Unmarshal([]byte(normalized), &parsed); err == nil {
		return stringifyList(parsed)
	}
	return nil
}

func stringifyList(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		s := strings.TrimSpace(toString(item))
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	default:
		b, _ := json.Marshal(t)
		return string(b)
	}
}
