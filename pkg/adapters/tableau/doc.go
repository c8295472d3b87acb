/*
Package tableau implements ports.ContentFetcher for Tableau Cloud and Tableau Server.

Sessions are opened with a connected-app JWT (REST API sign-in) and content is read through
the REST API (workbook listing) and the Metadata API (GraphQL workbook detail). The two
deployments differ only in how base URLs are built, see CloudDeployment and ServerDeployment.

A Client holds one session and is not safe for concurrent use.
*/
package tableau
