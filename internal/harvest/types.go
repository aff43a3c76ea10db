// Package harvest defines core types shared across subsystems.
package harvest

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// Stage identifies which traversal step a frontier request belongs to.
type Stage string

// Traversal stages, in discovery order.
const (
	StageAreaDiscovery Stage = "area_discovery"
	StageListingFirst  Stage = "listing_first"
	StageListingPage   Stage = "listing_page"
	StageVacancyDetail Stage = "vacancy_detail"
)

// Request is a unit of frontier work: one URL to fetch plus the context
// needed to interpret the response.
type Request struct {
	Stage     Stage
	URL       string
	AreaID    string
	Page      int
	VacancyID string
}

// IdentifiedName is the id/name pair the API uses for most dictionary
// entities (billing type, experience, schedule, employment, roles, ...).
type IdentifiedName struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AreaRef points at the geographic area a vacancy belongs to.
type AreaRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// MetroStation describes a metro station near the work address.
type MetroStation struct {
	StationName *string  `json:"station_name"`
	LineName    *string  `json:"line_name"`
	StationID   *string  `json:"station_id"`
	LineID      *string  `json:"line_id"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

// Address is the work location. Every field is independently optional.
type Address struct {
	City          *string        `json:"city"`
	Street        *string        `json:"street"`
	Building      *string        `json:"building"`
	Description   *string        `json:"description"`
	Raw           *string        `json:"raw"`
	Lat           *float64       `json:"lat"`
	Lng           *float64       `json:"lng"`
	Metro         *MetroStation  `json:"metro"`
	MetroStations []MetroStation `json:"metro_stations"`
}

// Specialization extends IdentifiedName with its professional area.
type Specialization struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfareaID   string `json:"profarea_id"`
	ProfareaName string `json:"profarea_name"`
}

// Employer describes the company behind a vacancy. The API serves partial
// employer objects, so everything beyond the embedded pair is a pointer.
type Employer struct {
	ID           *string `json:"id"`
	Name         *string `json:"name"`
	URL          *string `json:"url"`
	AlternateURL *string `json:"alternate_url"`
	VacanciesURL *string `json:"vacancies_url"`
	LogoURL      *string `json:"logo_url"`
	Trusted      *bool   `json:"trusted"`
}

// KeySkill is a single named skill attached to a vacancy.
type KeySkill struct {
	Name string `json:"name"`
}

// VacancyRecord is the canonical vacancy document persisted by the sink.
// ID is the sole identity for storage; everything else is optional. Blob
// fields whose internal shape is API-defined (salary, contacts, working
// schedule descriptors) are carried through opaquely as raw JSON.
type VacancyRecord struct {
	ID string `json:"id" validate:"required"`

	Name        *string `json:"name"`
	Description *string `json:"description"`

	Premium                 *bool `json:"premium"`
	ResponseLetterRequired  *bool `json:"response_letter_required"`
	AllowMessages           *bool `json:"allow_messages"`
	AcceptHandicapped       *bool `json:"accept_handicapped"`
	AcceptKids              *bool `json:"accept_kids"`
	Archived                *bool `json:"archived"`
	Hidden                  *bool `json:"hidden"`
	QuickResponsesAllowed   *bool `json:"quick_responses_allowed"`
	AcceptIncompleteResumes *bool `json:"accept_incomplete_resumes"`
	AcceptTemporary         *bool `json:"accept_temporary"`
	HasTest                 *bool `json:"has_test"`

	PublishedAt      *string `json:"published_at"`
	CreatedAt        *string `json:"created_at"`
	InitialCreatedAt *string `json:"initial_created_at"`

	ResponseURL        *string `json:"response_url"`
	NegotiationsURL    *string `json:"negotiations_url"`
	SuitableResumesURL *string `json:"suitable_resumes_url"`
	ApplyAlternateURL  *string `json:"apply_alternate_url"`
	AlternateURL       *string `json:"alternate_url"`
	Code               *string `json:"code"`

	Salary                     json.RawMessage `json:"salary,omitempty"`
	Contacts                   json.RawMessage `json:"contacts,omitempty"`
	Relations                  json.RawMessage `json:"relations,omitempty"`
	InsiderInterview           json.RawMessage `json:"insider_interview,omitempty"`
	Test                       json.RawMessage `json:"test,omitempty"`
	DriverLicenseTypes         json.RawMessage `json:"driver_license_types,omitempty"`
	Languages                  json.RawMessage `json:"languages,omitempty"`
	WorkingDays                json.RawMessage `json:"working_days,omitempty"`
	WorkingTimeIntervals       json.RawMessage `json:"working_time_intervals,omitempty"`
	WorkingTimeModes           json.RawMessage `json:"working_time_modes,omitempty"`
	VacancyConstructorTemplate json.RawMessage `json:"vacancy_constructor_template,omitempty"`

	BillingType *IdentifiedName `json:"billing_type"`
	Area        *AreaRef        `json:"area"`
	Type        *IdentifiedName `json:"type"`
	Address     *Address        `json:"address"`
	Experience  *IdentifiedName `json:"experience"`
	Schedule    *IdentifiedName `json:"schedule"`
	Employment  *IdentifiedName `json:"employment"`
	Department  *IdentifiedName `json:"department"`
	Employer    *Employer       `json:"employer"`

	KeySkills         []KeySkill       `json:"key_skills"`
	Specializations   []Specialization `json:"specializations"`
	ProfessionalRoles []IdentifiedName `json:"professional_roles"`
}

var validate = validator.New()

// Validate checks the structural invariants required before a record may be
// handed to a sink. Only a missing ID is fatal; every other absence is a
// legitimate null.
func (r *VacancyRecord) Validate() error {
	if err := validate.Struct(r); err != nil {
		return &MalformedRecordError{Field: "id", Err: err}
	}
	return nil
}
