// Package appidentityassets embeds the application identity so the binary
// can resolve its name and env prefix outside the source tree.
package appidentityassets

import _ "embed"

// YAML mirrors .fulmen/app.yaml.
//
//go:embed app.yaml
var YAML []byte
