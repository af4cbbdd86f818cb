// AngelaMos | 2026
// rules.go

package validation

import "regexp"

const (
	EntityOKR          = "okr"
	EntityKeyResult    = "key_result"
	EntityTeam         = "team"
	EntitySprint       = "sprint"
	EntityWikiDocument = "wiki_document"
	EntityWikiCategory = "wiki_category"
	EntityUser         = "user"
	EntityTenant       = "tenant"
)

var (
	slugPattern    = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	okrStatusPattern    = regexp.MustCompile(`^(draft|active|done|archived)$`)
	sprintStatusPattern = regexp.MustCompile(`^(planned|active|closed)$`)
)

// FieldRule is one declarative check on one field. Zero values mean "not
// checked": MinLen/MaxLen of 0 impose no bound, a nil Pattern skips the
// regex, nil Min/Max skip the numeric bounds. Numeric forces the value to
// be a number even when no bounds are set.
type FieldRule struct {
	Field      string
	Required   bool
	MinLen     int
	MaxLen     int
	Pattern    *regexp.Regexp
	PatternMsg string
	Email      bool
	UUID       bool
	Numeric    bool
	Min        *float64
	Max        *float64
}

func f64(v float64) *float64 { return &v }

// builtinRules is the rule table keyed by entity name. It is data, not
// code: entities are added by appending an entry (or calling Register at
// runtime), not by teaching the engine new cases.
func builtinRules() map[string][]FieldRule {
	return map[string][]FieldRule{
		EntityOKR: {
			{Field: "title", Required: true, MinLen: 3, MaxLen: 200},
			{Field: "description", MaxLen: 2000},
			{
				Field:      "status",
				Pattern:    okrStatusPattern,
				PatternMsg: "must be one of: draft, active, done, archived",
			},
			{Field: "team_id", UUID: true},
			{Field: "sprint_id", UUID: true},
			{Field: "owner_profile_id", UUID: true},
		},
		EntityKeyResult: {
			{Field: "okr_id", Required: true, UUID: true},
			{Field: "title", Required: true, MinLen: 3, MaxLen: 200},
			{Field: "metric_unit", MaxLen: 32},
			{Field: "start_value", Numeric: true},
			{Field: "target_value", Required: true, Numeric: true},
			{Field: "current_value", Numeric: true},
		},
		EntityTeam: {
			{Field: "name", Required: true, MinLen: 2, MaxLen: 100},
			{
				Field:      "slug",
				Required:   true,
				MaxLen:     50,
				Pattern:    slugPattern,
				PatternMsg: "must be lowercase letters, digits and hyphens",
			},
			{Field: "description", MaxLen: 500},
		},
		EntitySprint: {
			{Field: "name", Required: true, MinLen: 2, MaxLen: 100},
			{Field: "team_id", UUID: true},
			{
				Field:      "starts_on",
				Required:   true,
				Pattern:    isoDatePattern,
				PatternMsg: "must be an ISO date (YYYY-MM-DD)",
			},
			{
				Field:      "ends_on",
				Required:   true,
				Pattern:    isoDatePattern,
				PatternMsg: "must be an ISO date (YYYY-MM-DD)",
			},
			{
				Field:      "status",
				Pattern:    sprintStatusPattern,
				PatternMsg: "must be one of: planned, active, closed",
			},
		},
		EntityWikiDocument: {
			{Field: "title", Required: true, MinLen: 2, MaxLen: 200},
			{
				Field:      "slug",
				Required:   true,
				MaxLen:     80,
				Pattern:    slugPattern,
				PatternMsg: "must be lowercase letters, digits and hyphens",
			},
			{Field: "content", MaxLen: 100000},
			{Field: "category_id", UUID: true},
		},
		EntityWikiCategory: {
			{Field: "name", Required: true, MinLen: 2, MaxLen: 80},
			{
				Field:      "slug",
				Required:   true,
				MaxLen:     50,
				Pattern:    slugPattern,
				PatternMsg: "must be lowercase letters, digits and hyphens",
			},
			{Field: "position", Numeric: true, Min: f64(0), Max: f64(9999)},
		},
		EntityUser: {
			{Field: "name", Required: true, MinLen: 2, MaxLen: 120},
			{Field: "email", Required: true, Email: true, MaxLen: 255},
			{Field: "tenant_id", UUID: true},
		},
		EntityTenant: {
			{Field: "name", Required: true, MinLen: 2, MaxLen: 100},
			{
				Field:      "slug",
				Required:   true,
				MaxLen:     50,
				Pattern:    slugPattern,
				PatternMsg: "must be lowercase letters, digits and hyphens",
			},
		},
	}
}
