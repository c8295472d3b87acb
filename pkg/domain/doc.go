/*
Package domain contains the core models shared by the fetcher, the translator and the
catalog adapters.

It defines the content snapshot retrieved from the BI tool and the flat descriptors the
translator emits from it. This package is kept pure and free of external dependencies
like I/O or persistence, following Hexagonal Architecture principles.

# Key Entities

  - ContentData: A typed property bag for a workbook, view or data source.
  - Snapshot: The immutable, ordered result of one fetch cycle.
  - Layout: Field names used to read the property bags.
  - Key: A stable, path-like identity derived from type, external id and container id.
  - Descriptor: The dependency-annotated output unit handed to a Registrar.
*/
package domain
