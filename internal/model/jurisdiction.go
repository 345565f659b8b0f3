package model

// StateCode is a two-letter US state code.
type StateCode string

// LegalSystem distinguishes the legal tradition a jurisdiction follows.
// Louisiana is the only civil-law jurisdiction; query terminology differs there.
type LegalSystem string

const (
	CommonLaw LegalSystem = "common"
	CivilLaw  LegalSystem = "civil"
)

// Jurisdiction holds the static metadata for one state.
type Jurisdiction struct {
	Code          StateCode   `json:"code"`
	Name          string      `json:"name"`
	System        LegalSystem `json:"system"`
	CodeQualifier string      `json:"code_qualifier,omitempty"` // official statutory compilation name
}

// Codes lists all 50 state codes in the canonical survey order.
// The order is fixed so batch partitioning is deterministic.
var Codes = []StateCode{
	"AL", "AK", "AZ", "AR", "CA", "CO", "CT", "DE", "FL", "GA",
	"HI", "ID", "IL", "IN", "IA", "KS", "KY", "LA", "ME", "MD",
	"MA", "MI", "MN", "MS", "MO", "MT", "NE", "NV", "NH", "NJ",
	"NM", "NY", "NC", "ND", "OH", "OK", "OR", "PA", "RI", "SC",
	"SD", "TN", "TX", "UT", "VT", "VA", "WA", "WV", "WI", "WY",
}

// Jurisdictions maps each state code to its metadata.
var Jurisdictions = map[StateCode]Jurisdiction{
	"AL": {Code: "AL", Name: "Alabama", System: CommonLaw, CodeQualifier: "Code of Alabama"},
	"AK": {Code: "AK", Name: "Alaska", System: CommonLaw, CodeQualifier: "Alaska Statutes"},
	"AZ": {Code: "AZ", Name: "Arizona", System: CommonLaw, CodeQualifier: "Arizona Revised Statutes"},
	"AR": {Code: "AR", Name: "Arkansas", System: CommonLaw, CodeQualifier: "Arkansas Code"},
	"CA": {Code: "CA", Name: "California", System: CommonLaw, CodeQualifier: "California Codes"},
	"CO": {Code: "CO", Name: "Colorado", System: CommonLaw, CodeQualifier: "Colorado Revised Statutes"},
	"CT": {Code: "CT", Name: "Connecticut", System: CommonLaw, CodeQualifier: "Connecticut General Statutes"},
	"DE": {Code: "DE", Name: "Delaware", System: CommonLaw, CodeQualifier: "Delaware Code"},
	"FL": {Code: "FL", Name: "Florida", System: CommonLaw, CodeQualifier: "Florida Statutes"},
	"GA": {Code: "GA", Name: "Georgia", System: CommonLaw, CodeQualifier: "Official Code of Georgia"},
	"HI": {Code: "HI", Name: "Hawaii", System: CommonLaw, CodeQualifier: "Hawaii Revised Statutes"},
	"ID": {Code: "ID", Name: "Idaho", System: CommonLaw, CodeQualifier: "Idaho Code"},
	"IL": {Code: "IL", Name: "Illinois", System: CommonLaw, CodeQualifier: "Illinois Compiled Statutes"},
	"IN": {Code: "IN", Name: "Indiana", System: CommonLaw, CodeQualifier: "Indiana Code"},
	"IA": {Code: "IA", Name: "Iowa", System: CommonLaw, CodeQualifier: "Iowa Code"},
	"KS": {Code: "KS", Name: "Kansas", System: CommonLaw, CodeQualifier: "Kansas Statutes"},
	"KY": {Code: "KY", Name: "Kentucky", System: CommonLaw, CodeQualifier: "Kentucky Revised Statutes"},
	"LA": {Code: "LA", Name: "Louisiana", System: CivilLaw, CodeQualifier: "Louisiana Revised Statutes"},
	"ME": {Code: "ME", Name: "Maine", System: CommonLaw, CodeQualifier: "Maine Revised Statutes"},
	"MD": {Code: "MD", Name: "Maryland", System: CommonLaw, CodeQualifier: "Maryland Code"},
	"MA": {Code: "MA", Name: "Massachusetts", System: CommonLaw, CodeQualifier: "Massachusetts General Laws"},
	"MI": {Code: "MI", Name: "Michigan", System: CommonLaw, CodeQualifier: "Michigan Compiled Laws"},
	"MN": {Code: "MN", Name: "Minnesota", System: CommonLaw, CodeQualifier: "Minnesota Statutes"},
	"MS": {Code: "MS", Name: "Mississippi", System: CommonLaw, CodeQualifier: "Mississippi Code"},
	"MO": {Code: "MO", Name: "Missouri", System: CommonLaw, CodeQualifier: "Missouri Revised Statutes"},
	"MT": {Code: "MT", Name: "Montana", System: CommonLaw, CodeQualifier: "Montana Code Annotated"},
	"NE": {Code: "NE", Name: "Nebraska", System: CommonLaw, CodeQualifier: "Nebraska Revised Statutes"},
	"NV": {Code: "NV", Name: "Nevada", System: CommonLaw, CodeQualifier: "Nevada Revised Statutes"},
	"NH": {Code: "NH", Name: "New Hampshire", System: CommonLaw, CodeQualifier: "New Hampshire Revised Statutes"},
	"NJ": {Code: "NJ", Name: "New Jersey", System: CommonLaw, CodeQualifier: "New Jersey Revised Statutes"},
	"NM": {Code: "NM", Name: "New Mexico", System: CommonLaw, CodeQualifier: "New Mexico Statutes"},
	"NY": {Code: "NY", Name: "New York", System: CommonLaw, CodeQualifier: "New York Consolidated Laws"},
	"NC": {Code: "NC", Name: "North Carolina", System: CommonLaw, CodeQualifier: "North Carolina General Statutes"},
	"ND": {Code: "ND", Name: "North Dakota", System: CommonLaw, CodeQualifier: "North Dakota Century Code"},
	"OH": {Code: "OH", Name: "Ohio", System: CommonLaw, CodeQualifier: "Ohio Revised Code"},
	"OK": {Code: "OK", Name: "Oklahoma", System: CommonLaw, CodeQualifier: "Oklahoma Statutes"},
	"OR": {Code: "OR", Name: "Oregon", System: CommonLaw, CodeQualifier: "Oregon Revised Statutes"},
	"PA": {Code: "PA", Name: "Pennsylvania", System: CommonLaw, CodeQualifier: "Pennsylvania Consolidated Statutes"},
	"RI": {Code: "RI", Name: "Rhode Island", System: CommonLaw, CodeQualifier: "Rhode Island General Laws"},
	"SC": {Code: "SC", Name: "South Carolina", System: CommonLaw, CodeQualifier: "South Carolina Code of Laws"},
	"SD": {Code: "SD", Name: "South Dakota", System: CommonLaw, CodeQualifier: "South Dakota Codified Laws"},
	"TN": {Code: "TN", Name: "Tennessee", System: CommonLaw, CodeQualifier: "Tennessee Code"},
	"TX": {Code: "TX", Name: "Texas", System: CommonLaw, CodeQualifier: "Texas Statutes"},
	"UT": {Code: "UT", Name: "Utah", System: CommonLaw, CodeQualifier: "Utah Code"},
	"VT": {Code: "VT", Name: "Vermont", System: CommonLaw, CodeQualifier: "Vermont Statutes"},
	"VA": {Code: "VA", Name: "Virginia", System: CommonLaw, CodeQualifier: "Code of Virginia"},
	"WA": {Code: "WA", Name: "Washington", System: CommonLaw, CodeQualifier: "Revised Code of Washington"},
	"WV": {Code: "WV", Name: "West Virginia", System: CommonLaw, CodeQualifier: "West Virginia Code"},
	"WI": {Code: "WI", Name: "Wisconsin", System: CommonLaw, CodeQualifier: "Wisconsin Statutes"},
	"WY": {Code: "WY", Name: "Wyoming", System: CommonLaw, CodeQualifier: "Wyoming Statutes"},
}

// Lookup returns the jurisdiction metadata for a code.
func Lookup(code StateCode) (Jurisdiction, bool) {
	j, ok := Jurisdictions[code]
	return j, ok
}
