//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oncallhub/incident-desk/internal/testutil"
)

// incidentResponse mirrors the incident wire format.
type incidentResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Service   string    `json:"service"`
	Severity  string    `json:"severity"`
	Status    string    `json:"status"`
	Owner     *string   `json:"owner"`
	Summary   *string   `json:"summary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// listResponse mirrors the list wire format.
type listResponse struct {
	Incidents  []incidentResponse `json:"incidents"`
	Pagination struct {
		Page        int  `json:"page"`
		Limit       int  `json:"limit"`
		Total       int  `json:"total"`
		TotalPages  int  `json:"totalPages"`
		HasNextPage bool `json:"hasNextPage"`
		HasPrevPage bool `json:"hasPrevPage"`
	} `json:"pagination"`
}

// errorResponse mirrors the error wire format.
type errorResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

// uniqueService returns a service name no other test uses, so list and
// count assertions are isolated from concurrently created records.
func uniqueService(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, uuid.New().String()[:8])
}

// createIncident creates an incident via the API and fails the test on
// any non-201 outcome.
func createIncident(t *testing.T, client *testutil.Client, body map[string]interface{}) incidentResponse {
	t.Helper()

	resp, err := client.POST("/api/incidents", body)
	require.NoError(t, err)

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create incident: status=%d body=%s", resp.StatusCode, testutil.ReadBody(t, resp))
	}

	var incident incidentResponse
	testutil.DecodeJSON(t, resp, &incident)
	return incident
}
