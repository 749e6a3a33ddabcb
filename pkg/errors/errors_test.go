package errors_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
)

var _ = Describe("Errors", func() {
	It("should match wrapped errors with their predicate", func() {
		err := fmt.Errorf("resolving container: %w", srvErrors.NewServiceNotFoundError("db"))

		Expect(srvErrors.IsServiceNotFoundError(err)).To(BeTrue())
		Expect(srvErrors.IsAmbiguousServiceError(err)).To(BeFalse())
		Expect(err.Error()).To(ContainSubstring("no such service: db"))
	})

	It("should carry the captured output of a failed launch", func() {
		err := srvErrors.NewLaunchFailedError([]byte("out"), []byte("boom"), 1)

		Expect(srvErrors.IsLaunchFailedError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("code 1"))
		Expect(err.Error()).To(ContainSubstring("boom"))
		Expect(err.ExitCode).To(Equal(1))
	})

	It("should list the colliding containers", func() {
		err := srvErrors.NewAmbiguousServiceError("sync", []string{"abc", "def"})

		Expect(err.Error()).To(ContainSubstring("abc, def"))
	})

	It("should report the port of an unpublished mapping", func() {
		err := srvErrors.NewPortNotPublishedError("db", 5432)

		Expect(srvErrors.IsPortNotPublishedError(err)).To(BeTrue())
		Expect(err.Error()).To(Equal("for service db: no such port: 5432"))
	})

	It("should fall back to a generic message when exhausted without one", func() {
		Expect(srvErrors.NewNoMoreTriesError("").Error()).To(Equal("no more tries"))
		Expect(srvErrors.NewNoMoreTriesError("still down").Error()).To(Equal("still down"))
	})
})
