package logger_test

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/quarrylabs/ragcheck/pkg/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("NewLoggerWithWriters", func() {
	It("writes info logs to the provided writer", func() {
		var buf bytes.Buffer
		log := logger.NewLoggerWithWriters(false, &buf)

		log.Info("hello from ragcheck")
		Expect(log.Sync()).To(Succeed())

		Expect(buf.String()).To(ContainSubstring("hello from ragcheck"))
		Expect(buf.String()).To(ContainSubstring("INFO"))
	})

	It("suppresses debug logs unless debug is enabled", func() {
		var buf bytes.Buffer
		log := logger.NewLoggerWithWriters(false, &buf)

		log.Debug("hidden")
		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
	})

	It("emits debug logs when debug is enabled", func() {
		var buf bytes.Buffer
		log := logger.NewLoggerWithWriters(true, &buf)

		log.Debug("visible")
		Expect(buf.String()).To(ContainSubstring("visible"))
	})

	It("fans out to multiple writers", func() {
		var a, b bytes.Buffer
		log := logger.NewLoggerWithWriters(false, &a, &b)

		log.Info("fan out")

		Expect(strings.TrimSpace(a.String())).NotTo(BeEmpty())
		Expect(a.String()).To(Equal(b.String()))
	})
})
