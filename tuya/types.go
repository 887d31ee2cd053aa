package tuya

// Credential is one client id/secret pair for a user's cloud project.
// Stored with the user account and never exposed to the frontend.
type Credential struct {
	ClientID     string
	ClientSecret string
}

// Device is one device as reported by the cloud inventory endpoint.
// Transient: fetched per sync, never persisted verbatim.
type Device struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Online   bool       `json:"online"`
	Status   []Property `json:"status"`
}

// Property is a single data point (DP) on a device, e.g. {code: "switch_1", value: true}.
type Property struct {
	Code  string      `json:"code"`
	Value interface{} `json:"value"`
}
