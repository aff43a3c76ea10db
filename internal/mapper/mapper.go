// Package mapper turns raw API payloads into canonical records and traversal
// metadata. Mapping is pure: no I/O, deterministic for a given payload.
//
// The API is loosely typed and aggressively nullable, so every lookup goes
// through gjson, which distinguishes a key that is absent (Exists() == false)
// from one that is explicitly null (Type == gjson.Null). A null or absent
// parent short-circuits extraction of all its children; nothing in this
// package panics on shape drift.
package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/vkarmanov/vacancy-harvester/internal/harvest"
)

// AreaTree extracts the child area IDs of the country node matching
// countryID from an /areas response. A missing country or an empty child
// list yields an empty slice, not an error; the caller treats that as an
// empty discovery. IDs are deduplicated; order carries no meaning.
func AreaTree(raw []byte, countryID string) ([]string, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &harvest.MalformedRecordError{Field: "areas", Err: fmt.Errorf("invalid JSON")}
	}
	root := gjson.ParseBytes(raw)
	if !root.IsArray() {
		return nil, &harvest.MalformedRecordError{Field: "areas", Err: fmt.Errorf("top level is not an array")}
	}

	var children gjson.Result
	root.ForEach(func(_, country gjson.Result) bool {
		if country.Get("id").String() == countryID {
			children = country.Get("areas")
			return false
		}
		return true
	})
	if !children.Exists() || !children.IsArray() {
		return []string{}, nil
	}

	seen := make(map[string]struct{})
	ids := make([]string, 0, len(children.Array()))
	children.ForEach(func(_, area gjson.Result) bool {
		id := area.Get("id").String()
		if id == "" {
			return true
		}
		if _, dup := seen[id]; dup {
			return true
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		return true
	})
	return ids, nil
}

// ListingPage extracts the total page count and the vacancy IDs present on
// one listing page. An absent or empty items array is zero IDs, not an
// error; a non-numeric or negative pages value fails the mapping contract.
func ListingPage(raw []byte) (int, []string, error) {
	if !gjson.ValidBytes(raw) {
		return 0, nil, &harvest.MalformedRecordError{Field: "pages", Err: fmt.Errorf("invalid JSON")}
	}
	root := gjson.ParseBytes(raw)

	pages, err := coerceInt(root.Get("pages"))
	if err != nil {
		return 0, nil, &harvest.MalformedRecordError{Field: "pages", Err: err}
	}
	if pages < 0 {
		return 0, nil, &harvest.MalformedRecordError{Field: "pages", Err: fmt.Errorf("negative page count %d", pages)}
	}

	var ids []string
	root.Get("items").ForEach(func(_, item gjson.Result) bool {
		if id := item.Get("id"); id.Exists() && id.Type != gjson.Null {
			ids = append(ids, id.String())
		}
		return true
	})
	return pages, ids, nil
}

// VacancyDetail maps one vacancy detail document into a VacancyRecord. A
// missing or null id is the only fatal absence; every other missing key maps
// to a nil field. Identifiers stay opaque strings even when the wire carries
// numbers, and lat/lng degrade to nil on non-numeric values.
func VacancyDetail(raw []byte) (*harvest.VacancyRecord, error) {
	if !gjson.ValidBytes(raw) {
		return nil, &harvest.MalformedRecordError{Field: "id", Err: fmt.Errorf("invalid JSON")}
	}
	root := gjson.ParseBytes(raw)

	id := root.Get("id")
	if !id.Exists() || id.Type == gjson.Null || id.String() == "" {
		return nil, &harvest.MalformedRecordError{Field: "id"}
	}

	rec := &harvest.VacancyRecord{
		ID:          id.String(),
		Name:        strPtr(root.Get("name")),
		Description: strPtr(root.Get("description")),

		Premium:                 boolPtr(root.Get("premium")),
		ResponseLetterRequired:  boolPtr(root.Get("response_letter_required")),
		AllowMessages:           boolPtr(root.Get("allow_messages")),
		AcceptHandicapped:       boolPtr(root.Get("accept_handicapped")),
		AcceptKids:              boolPtr(root.Get("accept_kids")),
		Archived:                boolPtr(root.Get("archived")),
		Hidden:                  boolPtr(root.Get("hidden")),
		QuickResponsesAllowed:   boolPtr(root.Get("quick_responses_allowed")),
		AcceptIncompleteResumes: boolPtr(root.Get("accept_incomplete_resumes")),
		AcceptTemporary:         boolPtr(root.Get("accept_temporary")),
		HasTest:                 boolPtr(root.Get("has_test")),

		PublishedAt:      strPtr(root.Get("published_at")),
		CreatedAt:        strPtr(root.Get("created_at")),
		InitialCreatedAt: strPtr(root.Get("initial_created_at")),

		ResponseURL:        strPtr(root.Get("response_url")),
		NegotiationsURL:    strPtr(root.Get("negotiations_url")),
		SuitableResumesURL: strPtr(root.Get("suitable_resumes_url")),
		ApplyAlternateURL:  strPtr(root.Get("apply_alternate_url")),
		AlternateURL:       strPtr(root.Get("alternate_url")),
		Code:               strPtr(root.Get("code")),

		Salary:                     rawBlob(root.Get("salary")),
		Contacts:                   rawBlob(root.Get("contacts")),
		Relations:                  rawBlob(root.Get("relations")),
		InsiderInterview:           rawBlob(root.Get("insider_interview")),
		Test:                       rawBlob(root.Get("test")),
		DriverLicenseTypes:         rawBlob(root.Get("driver_license_types")),
		Languages:                  rawBlob(root.Get("languages")),
		WorkingDays:                rawBlob(root.Get("working_days")),
		WorkingTimeIntervals:       rawBlob(root.Get("working_time_intervals")),
		WorkingTimeModes:           rawBlob(root.Get("working_time_modes")),
		VacancyConstructorTemplate: rawBlob(root.Get("vacancy_constructor_template")),

		BillingType: idName(root.Get("billing_type")),
		Type:        idName(root.Get("type")),
		Experience:  idName(root.Get("experience")),
		Schedule:    idName(root.Get("schedule")),
		Employment:  idName(root.Get("employment")),
		Department:  idName(root.Get("department")),

		Area:     areaRef(root.Get("area")),
		Address:  address(root.Get("address")),
		Employer: employer(root.Get("employer")),

		KeySkills:         keySkills(root.Get("key_skills")),
		Specializations:   specializations(root.Get("specializations")),
		ProfessionalRoles: idNameList(root.Get("professional_roles")),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

func strPtr(v gjson.Result) *string {
	if !present(v) {
		return nil
	}
	s := v.String()
	return &s
}

func boolPtr(v gjson.Result) *bool {
	if !present(v) {
		return nil
	}
	b := v.Bool()
	return &b
}

// floatPtr parses coordinates. Anything non-numeric maps to nil instead of
// failing the whole record.
func floatPtr(v gjson.Result) *float64 {
	switch {
	case !present(v):
		return nil
	case v.Type == gjson.Number:
		f := v.Float()
		return &f
	case v.Type == gjson.String:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return nil
		}
		return &f
	default:
		return nil
	}
}

func rawBlob(v gjson.Result) json.RawMessage {
	if !present(v) {
		return nil
	}
	return json.RawMessage(v.Raw)
}

func coerceInt(v gjson.Result) (int, error) {
	switch {
	case !present(v):
		return 0, fmt.Errorf("missing numeric value")
	case v.Type == gjson.Number:
		return int(v.Int()), nil
	case v.Type == gjson.String:
		n, err := strconv.Atoi(v.Str)
		if err != nil {
			return 0, fmt.Errorf("non-numeric value %q", v.Str)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("non-numeric value %s", v.Raw)
	}
}

func idName(v gjson.Result) *harvest.IdentifiedName {
	if !present(v) {
		return nil
	}
	return &harvest.IdentifiedName{
		ID:   v.Get("id").String(),
		Name: v.Get("name").String(),
	}
}

func areaRef(v gjson.Result) *harvest.AreaRef {
	if !present(v) {
		return nil
	}
	return &harvest.AreaRef{
		ID:   v.Get("id").String(),
		Name: v.Get("name").String(),
		URL:  v.Get("url").String(),
	}
}

func metroStation(v gjson.Result) *harvest.MetroStation {
	if !present(v) {
		return nil
	}
	return &harvest.MetroStation{
		StationName: strPtr(v.Get("station_name")),
		LineName:    strPtr(v.Get("line_name")),
		StationID:   strPtr(v.Get("station_id")),
		LineID:      strPtr(v.Get("line_id")),
		Lat:         floatPtr(v.Get("lat")),
		Lng:         floatPtr(v.Get("lng")),
	}
}

func address(v gjson.Result) *harvest.Address {
	if !present(v) {
		return nil
	}
	addr := &harvest.Address{
		City:        strPtr(v.Get("city")),
		Street:      strPtr(v.Get("street")),
		Building:    strPtr(v.Get("building")),
		Description: strPtr(v.Get("description")),
		Raw:         strPtr(v.Get("raw")),
		Lat:         floatPtr(v.Get("lat")),
		Lng:         floatPtr(v.Get("lng")),
		Metro:       metroStation(v.Get("metro")),
	}
	if stations := v.Get("metro_stations"); present(stations) && stations.IsArray() {
		out := make([]harvest.MetroStation, 0, len(stations.Array()))
		stations.ForEach(func(_, st gjson.Result) bool {
			if m := metroStation(st); m != nil {
				out = append(out, *m)
			}
			return true
		})
		addr.MetroStations = out
	}
	return addr
}

func employer(v gjson.Result) *harvest.Employer {
	if !present(v) {
		return nil
	}
	return &harvest.Employer{
		ID:           strPtr(v.Get("id")),
		Name:         strPtr(v.Get("name")),
		URL:          strPtr(v.Get("url")),
		AlternateURL: strPtr(v.Get("alternate_url")),
		VacanciesURL: strPtr(v.Get("vacancies_url")),
		LogoURL:      strPtr(v.Get("logo_urls.original")),
		Trusted:      boolPtr(v.Get("trusted")),
	}
}

func keySkills(v gjson.Result) []harvest.KeySkill {
	if !present(v) || !v.IsArray() {
		return nil
	}
	out := make([]harvest.KeySkill, 0, len(v.Array()))
	v.ForEach(func(_, skill gjson.Result) bool {
		out = append(out, harvest.KeySkill{Name: skill.Get("name").String()})
		return true
	})
	return out
}

func specializations(v gjson.Result) []harvest.Specialization {
	if !present(v) || !v.IsArray() {
		return nil
	}
	out := make([]harvest.Specialization, 0, len(v.Array()))
	v.ForEach(func(_, sp gjson.Result) bool {
		out = append(out, harvest.Specialization{
			ID:           sp.Get("id").String(),
			Name:         sp.Get("name").String(),
			ProfareaID:   sp.Get("profarea_id").String(),
			ProfareaName: sp.Get("profarea_name").String(),
		})
		return true
	})
	return out
}

func idNameList(v gjson.Result) []harvest.IdentifiedName {
	if !present(v) || !v.IsArray() {
		return nil
	}
	out := make([]harvest.IdentifiedName, 0, len(v.Array()))
	v.ForEach(func(_, item gjson.Result) bool {
		out = append(out, harvest.IdentifiedName{
			ID:   item.Get("id").String(),
			Name: item.Get("name").String(),
		})
		return true
	})
	return out
}
