package tableau

import "fmt"

// RESTAPIVersion is the Tableau REST API version used for every REST call.
const RESTAPIVersion = "3.23"

// Deployment builds the base URLs of a Tableau installation.
type Deployment interface {
	// RESTBaseURL returns the versioned REST API root, without a trailing slash.
	RESTBaseURL() string
	// MetadataURL returns the GraphQL endpoint of the Metadata API.
	MetadataURL() string
}

// CloudDeployment addresses a Tableau Cloud pod, e.g. "10ax".
type CloudDeployment struct {
	Pod string
}

func (d CloudDeployment) RESTBaseURL() string {
	return fmt.Sprintf("https://%s.online.tableau.com/api/%s", d.Pod, RESTAPIVersion)
}

func (d CloudDeployment) MetadataURL() string {
	return fmt.Sprintf("https://%s.online.tableau.com/api/metadata/graphql", d.Pod)
}

func (d CloudDeployment) String() string { return "cloud:" + d.Pod }

// ServerDeployment addresses a self-hosted Tableau Server by host name.
type ServerDeployment struct {
	Host string
}

func (d ServerDeployment) RESTBaseURL() string {
	return fmt.Sprintf("https://%s/api/%s", d.Host, RESTAPIVersion)
}

func (d ServerDeployment) MetadataURL() string {
	return fmt.Sprintf("https://%s/api/metadata/graphql", d.Host)
}

func (d ServerDeployment) String() string { return "server:" + d.Host }
