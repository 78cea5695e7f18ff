// Package templates renders the editor's HTML with templ components.
// Components live in templates.templ; run `templ generate` after editing it.
//
// The page is driven by htmx: the upload form swaps the whole #workspace,
// and each cell input posts to /cell on every keystroke. Responses to cell
// edits carry an out-of-band #table-version input so the next edit is sent
// against the table it was typed into.
package templates

import (
	"encoding/json"
	"strconv"

	"github.com/JonMunkholm/csvedit/internal/core"
)

// HTMXScript is loaded from the CDN; the CSP in the web server allows it.
const HTMXScript = "https://unpkg.com/htmx.org@2.0.4"

// htmxConfig swaps 4xx/5xx responses too, so error fragments reach the page.
const htmxConfig = `{"responseHandling":[{"code":"204","swap":false},{"code":"[23]..","swap":true},{"code":"[45]..","swap":true,"error":true}]}`

const pageStyle = `
body{font-family:system-ui,sans-serif;margin:0;padding:1.5rem;color:#111827;background:#fff}
h1{font-size:1.5rem;margin:0 0 1rem}
form{margin-bottom:1rem}
.alert{color:#dc2626;margin:0 0 1rem;display:flex;gap:.5rem;align-items:baseline}
.alert small{color:#6b7280}
.alert button{border:none;background:none;color:#6b7280;cursor:pointer}
.table-wrap{overflow-x:auto}
table{border-collapse:collapse;font-size:.875rem;min-width:100%}
th,td{border:1px solid #d1d5db;padding:.5rem;text-align:left}
thead{background:#f3f4f6}
tbody tr:hover{background:#f9fafb}
td input{width:100%;box-sizing:border-box;padding:.25rem .5rem;border:1px solid #d1d5db;border-radius:.25rem}
`

// cellVals is the hx-vals payload that tells /cell which cell an input edits.
func cellVals(row int, col core.Column) (string, error) {
	b, err := json.Marshal(map[string]string{
		"row":    strconv.Itoa(row),
		"column": col,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}
