package assets

import "embed"

// DataFS holds the static datasets shipped with the binary.
//
//go:embed *.csv.gz
var DataFS embed.FS
