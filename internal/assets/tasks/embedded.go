package tasksassets

import _ "embed"

// CatalogYAML is the default task catalog compiled into the binary.
//
//go:embed catalog.yaml
var CatalogYAML []byte
