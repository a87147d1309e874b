package e2e

import (
	"fmt"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// Run the whole-engine convergence suite. These tests drive full solves of
// the hydro-thermal scheduling model through the public API, serial and
// asynchronous, and check the bounds and artifacts they produce.
func TestE2E(t *testing.T) {
	RegisterFailHandler(Fail)
	_, _ = fmt.Fprintf(GinkgoWriter, "Starting sddp end-to-end suite\n")
	RunSpecs(t, "sddp e2e suite")
}
