package httpapi

import _ "embed"

//go:embed templates/index.html
var indexTemplate string
