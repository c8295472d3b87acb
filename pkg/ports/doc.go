/*
Package ports defines the driven ports (interfaces) of contentgraph.

These interfaces decouple the fetch-translate cycle from external implementations,
allowing it to work with different content APIs, registration backends and lock providers.

# Key Interfaces

  - ContentFetcher: Authenticates against a content API and retrieves containers.
  - Registrar: Receives translated descriptors, one call per descriptor.
  - Catalog: A Registrar that can also read descriptors back (Memory, Redis, Loam).
  - DistributedLocker: Provides distributed locking for refresh cycles across replicas.
*/
package ports
