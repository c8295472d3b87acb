/*
Package contentgraph translates the content graph of a BI site into flat, keyed,
dependency-linked descriptors.

A Tableau site is a tree: workbooks hold views, and views read from published data
sources that several views may share. contentgraph fetches that tree through a scoped
session, flattens it into one descriptor per view and one per distinct data source, and
hands the result to a registration backend.

# Concept

Each cycle is independent. A Workspace asks its FetcherFactory for a fresh fetcher,
authenticates, collects a snapshot, translates it and always signs out afterwards. Nothing
is cached between cycles.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/contentgraph"
		"github.com/aretw0/contentgraph/pkg/adapters/memory"
		"github.com/aretw0/contentgraph/pkg/adapters/tableau"
	)

	func main() {
		ws, err := contentgraph.NewTableau(tableau.Credentials{
			ClientID:    "...",
			SecretID:    "...",
			SecretValue: "...",
			Username:    "analyst@example.com",
			SiteName:    "acme",
		}, tableau.CloudDeployment{Pod: "10ax"})
		if err != nil {
			log.Fatal(err)
		}

		catalog := memory.New()
		n, err := ws.Load(context.Background(), catalog)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("registered %d descriptors", n)
	}

# Architecture

  - pkg/domain: snapshots, descriptors, keys and typed errors.
  - pkg/ports: ContentFetcher, Registrar, Catalog and DistributedLocker.
  - pkg/translator: the pure snapshot-to-descriptor pass.
  - pkg/adapters: Tableau client, catalogs (memory, redis, loam), HTTP and MCP servers.
*/
package contentgraph
