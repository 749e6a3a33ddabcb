package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-launcher/internal/config"
	"github.com/kubev2v/asset-launcher/pkg/authmock"
	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
	"github.com/kubev2v/asset-launcher/pkg/launcher"
	"github.com/kubev2v/asset-launcher/pkg/wait"
	"github.com/kubev2v/asset-launcher/test/e2e/infra"
)

var _ = Describe("asset lifecycle", Ordered, func() {
	var (
		ctx context.Context
		h   *launcher.Helper
	)

	BeforeAll(func() {
		ctx = context.Background()
		Expect(infraManager.Launch(ctx)).To(Succeed())
		h = infraManager.Helper()

		Expect(wait.PortsReady{Ports: []int{infra.InternalPort}, Timeout: time.Minute}.Wait(ctx, h)).To(Succeed())
	})

	AfterAll(func() {
		Expect(infraManager.Stop(ctx)).To(Succeed())
	})

	It("should publish the service port on 127.0.0.1", func() {
		port, err := h.ServicePort(ctx, infra.InternalPort)
		Expect(err).NotTo(HaveOccurred())

		resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/", port))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))
	})

	It("should report a port that is not published", func() {
		_, err := h.ServicePort(ctx, 9999)
		Expect(srvErrors.IsPortNotPublishedError(err)).To(BeTrue())
	})

	It("should run commands in the service container", func() {
		result, err := h.ExecOrFail(ctx, []string{"echo", "ok"})
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(string(result.Stdout))).To(Equal("ok"))

		_, err = h.ExecOrFail(ctx, []string{"false"})
		Expect(srvErrors.IsCommandFailedError(err)).To(BeTrue())
	})

	It("should mark the service logs", func() {
		Expect(h.MarkLogsStart(ctx, "e2e")).To(Succeed())

		Eventually(func() (string, error) {
			return h.ServiceLogs(ctx)
		}, 10*time.Second, 500*time.Millisecond).Should(ContainSubstring("TEST START: e2e"))
	})

	It("should write files in the service container", func() {
		fs := h.FileSystem(infra.Service)
		Expect(fs.CreateFile(ctx, "/tmp/hello.txt", "hello", "644", true)).To(Succeed())

		result, err := h.ExecOrFail(ctx, []string{"cat", "/tmp/hello.txt"})
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.TrimSpace(string(result.Stdout))).To(Equal("hello"))

		Expect(fs.RemoveFile(ctx, "/tmp/hello.txt")).To(Succeed())
	})

	It("should copy files through the host", func() {
		Expect(h.CopyAcross(ctx, infra.Service, "/etc/hostname", infra.Service, "/tmp/hostname-copy")).To(Succeed())

		original, err := h.ExecOrFail(ctx, []string{"cat", "/etc/hostname"})
		Expect(err).NotTo(HaveOccurred())
		copied, err := h.ExecOrFail(ctx, []string{"cat", "/tmp/hostname-copy"})
		Expect(err).NotTo(HaveOccurred())
		Expect(copied.Stdout).To(Equal(original.Stdout))
	})

	It("should not find the bootstrap container once it exited", func() {
		_, err := h.ContainerID(ctx, launcher.Service("sync"))
		Expect(srvErrors.IsServiceNotFoundError(err)).To(BeTrue())
	})

	It("should pause and restart the service", func() {
		Expect(h.PauseService(ctx)).To(Succeed())
		status, err := h.ServiceStatus(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(status.State.Paused).To(BeTrue())
		Expect(h.UnpauseService(ctx)).To(Succeed())

		Expect(h.RestartService(ctx)).To(Succeed())
		Expect(wait.PortsReady{Ports: []int{infra.InternalPort}, Timeout: time.Minute}.Wait(ctx, h)).To(Succeed())
	})

	It("should reach the auth mock from the host", func() {
		resp, err := http.Head(infraManager.AuthURL() + "/0.1/token/" + authmock.ValidToken)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
	})
})

var _ = Describe("failed bootstrap", func() {
	It("should kill the asset and report the bootstrap output", func() {
		if !env.ContainerManagementEnabled() {
			Skip("containers are managed out of band")
		}
		ctx := context.Background()

		broken := *env
		broken.LogsEnabled = true
		logDir := GinkgoT().TempDir()
		h, err := launcher.New(
			launcher.Asset{Service: infra.Service, Name: "broken", Root: assetsRoot},
			launcher.WithEnvironment(&broken),
			launcher.WithLogDir(launcher.NewLogDir(logDir)),
		)
		Expect(err).NotTo(HaveOccurred())

		err = h.Launch(ctx)

		Expect(srvErrors.IsLaunchFailedError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("bootstrap refused"))
		Expect(h.State()).To(Equal(launcher.StateDown))

		dumps, err := os.ReadDir(logDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(dumps).To(HaveLen(1))
		if !broken.KeepContainers {
			_, err = h.ContainerID(ctx)
			Expect(srvErrors.IsServiceNotFoundError(err)).To(BeTrue())
		}
	})
})

var _ = Describe("unmanaged environment", func() {
	It("should not touch any container", func() {
		unmanaged := *env
		unmanaged.Docker = config.DockerModeIgnore
		h, err := launcher.New(launcher.Asset{Service: infra.Service, Name: "base", Root: assetsRoot},
			launcher.WithEnvironment(&unmanaged))
		Expect(err).NotTo(HaveOccurred())

		Expect(h.Launch(context.Background())).To(Succeed())
		Expect(h.State()).To(Equal(launcher.StateUnmanaged))
		Expect(h.Stop(context.Background())).To(Succeed())
	})
})
