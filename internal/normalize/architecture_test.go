package normalize

import (
	"testing"

	"fieldbook/testutil"
)

func TestNoStorageOrTransportImports(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.AdapterImportForbidden, testutil.IOImportForbidden),
		"internal/normalize is pure; adapters call it, not the reverse")
	testutil.AssertNoTransitiveDependency(t, "fieldbook/internal/normalize", testutil.AdapterImportForbidden,
		"internal/normalize must not reach an adapter through its dependencies")
}
