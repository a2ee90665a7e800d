// Package docproc is the documentation processing backend. Its sub-packages
// register their constructors with the default catalog under Tag, and the
// dpb command discovers them into a container tagged with Tag.
package docproc

import "github.com/kdpb/inject"

// Tag gates every documentation processing registration.
const Tag inject.Tag = "DOCUMENTATION_PROCESSING"

// Root is the import path discovery starts from.
const Root = "github.com/kdpb/inject/internal/docproc"
