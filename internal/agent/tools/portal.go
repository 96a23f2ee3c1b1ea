package tools

import (
	"fmt"
	"strings"

	"google.golang.org/adk/tool"
	"google.golang.org/adk/tool/functiontool"
)

// PortalToolName is the registry name of the developer portal tool.
const PortalToolName = "inspect_developer_portal"

// PortalSection is one area of the developer portal.
type PortalSection struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

// PortalOverview is returned when no query is given.
type PortalOverview struct {
	Description   string   `json:"description"`
	BaseURL       string   `json:"base_url"`
	AvailableAPIs []string `json:"available_apis"`
}

// PortalAPIs is returned for API queries.
type PortalAPIs struct {
	AvailableAPIs    []string `json:"available_apis"`
	DocumentationURL string   `json:"documentation_url"`
}

// PortalResult is the result of inspect_developer_portal. Info holds a
// PortalOverview, PortalAPIs or PortalSection.
type PortalResult struct {
	Status       string `json:"status"`
	Info         any    `json:"info,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// PortalArgs is the input of inspect_developer_portal.
type PortalArgs struct {
	Query string `json:"query,omitempty" jsonschema:"Specific topic or area to query about. Leave empty for general portal information."`
}

const portalBaseURL = "https://developer.keybank.com"

var (
	portalAPIs = []string{
		"Embedded Banking API",
		"Payment Services API",
		"Account Information API",
		"Transaction Data API",
	}

	sectionTestData = PortalSection{
		Path:        "/test-data",
		Description: "Access to test data and sandbox environments",
	}
	sectionAuthentication = PortalSection{
		Path:        "/auth",
		Description: "Authentication methods and security guidelines",
	}
	sectionGettingStarted = PortalSection{
		Path:        "/getting-started",
		Description: "Quick start guides and tutorials",
	}
)

// portalRoutes are checked in order; the first keyword match wins.
var portalRoutes = []struct {
	keywords []string
	info     func() any
}{
	{[]string{"api"}, func() any {
		return PortalAPIs{AvailableAPIs: portalAPIs, DocumentationURL: portalBaseURL + "/docs"}
	}},
	{[]string{"test", "sandbox"}, func() any { return sectionTestData }},
	{[]string{"auth", "security"}, func() any { return sectionAuthentication }},
	{[]string{"guide", "tutorial"}, func() any { return sectionGettingStarted }},
}

// InspectDeveloperPortal answers questions about the developer portal from
// static data.
func InspectDeveloperPortal(query string) PortalResult {
	if query == "" {
		return PortalResult{
			Status: StatusSuccess,
			Info: PortalOverview{
				Description:   "KeyBank Developer Portal - Your gateway to banking APIs",
				BaseURL:       portalBaseURL,
				AvailableAPIs: portalAPIs,
			},
		}
	}

	q := strings.ToLower(query)
	for _, route := range portalRoutes {
		for _, kw := range route.keywords {
			if strings.Contains(q, kw) {
				return PortalResult{Status: StatusSuccess, Info: route.info()}
			}
		}
	}

	return PortalResult{
		Status:       StatusError,
		ErrorMessage: fmt.Sprintf("No specific information found for query: '%s'", q),
	}
}

// NewPortalTool creates the inspect_developer_portal tool.
func NewPortalTool() (tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name: PortalToolName,
		Description: "Inspects KeyBank's Developer Portal for information about available APIs, " +
			"documentation, test data, authentication and getting-started guides.",
	}, func(_ tool.Context, args PortalArgs) (PortalResult, error) {
		return InspectDeveloperPortal(args.Query), nil
	})
}
