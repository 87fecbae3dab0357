package extract

import _ "embed"

// Index file templates scaffolded into the extracted tree. The root index
// configures the blog section; branch indices exist only so Zola treats
// intermediate date directories as transparent sections.

//go:embed templates/root._index.md
var rootIndexData []byte

//go:embed templates/branch._index.md
var branchIndexData []byte
