package domain

import (
	"testing"

	"fieldbook/testutil"
)

// TestDomainStaysPure keeps the domain layer free of internal packages and of
// storage or transport I/O.
func TestDomainStaysPure(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".",
		testutil.AnyOf(testutil.InternalImportForbidden, testutil.IOImportForbidden),
		"pkg/domain must not depend on internal packages or I/O")
}
