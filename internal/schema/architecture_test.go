package schema

import (
	"testing"

	"fieldbook/testutil"
)

func TestNoStorageOrTransportImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.AdapterImportForbidden, testutil.IOImportForbidden),
		"internal/schema is pure; adapters call it, not the reverse")
	testutil.AssertNoTransitiveDependency(t, "fieldbook/internal/schema", testutil.AdapterImportForbidden,
		"internal/schema must not reach an adapter through its dependencies")
}
