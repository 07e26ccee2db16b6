package testutil

// FixedRunID returns the same run id every time.
//
// Scenario runs use it so rendered reports and journal rows are byte-stable.
// If token is empty, Generate() returns "test-run-default".
type FixedRunID struct {
	token string
}

// NewFixedRunID creates a fixed run id generator.
func NewFixedRunID(token string) *FixedRunID {
	if token == "" {
		token = "test-run-default"
	}
	return &FixedRunID{token: token}
}

// Generate returns the fixed run id.
func (g *FixedRunID) Generate() string {
	return g.token
}
