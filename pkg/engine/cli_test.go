package engine_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-launcher/pkg/engine"
	srvErrors "github.com/kubev2v/asset-launcher/pkg/errors"
	"github.com/kubev2v/asset-launcher/pkg/runner"
	"github.com/kubev2v/asset-launcher/test"
)

const inspectOutput = `[
  {
    "Id": "abc123",
    "Name": "/auth_base-db-1",
    "Config": {"Image": "postgres:15"},
    "State": {"Status": "running", "Running": true, "Paused": false, "ExitCode": 0, "StartedAt": "2024-01-01T00:00:00Z"},
    "NetworkSettings": {
      "Ports": {
        "5432/tcp": [{"HostIp": "::", "HostPort": "49200"}, {"HostIp": "0.0.0.0", "HostPort": "49153"}],
        "9000/tcp": null
      }
    }
  }
]`

var _ = Describe("CLIEngine", func() {
	var (
		ctx  context.Context
		fake *test.FakeRunner
		e    *engine.CLIEngine
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = test.NewFakeRunner()
		e = engine.NewCLIEngine(fake, "docker")
	})

	Context("Inspect", func() {
		It("should decode the inspect document", func() {
			fake.On(runner.Result{Stdout: []byte(inspectOutput)}, "inspect")

			info, err := e.Inspect(ctx, "abc123")

			Expect(err).NotTo(HaveOccurred())
			Expect(info.ID).To(Equal("abc123"))
			Expect(info.Name).To(Equal("auth_base-db-1"))
			Expect(info.Image).To(Equal("postgres:15"))
			Expect(info.State.Running).To(BeTrue())
			Expect(info.Ports).To(HaveKey("5432/tcp"))
			Expect(info.Ports["9000/tcp"]).To(BeEmpty())
			Expect(fake.Calls()[0].Argv).To(Equal([]string{"docker", "inspect", "--type", "container", "abc123"}))
		})

		It("should fail when the container does not exist", func() {
			fake.On(runner.Result{ExitCode: 1, Stderr: []byte("Error: No such container: nope")}, "inspect")

			_, err := e.Inspect(ctx, "nope")

			Expect(srvErrors.IsCommandFailedError(err)).To(BeTrue())
		})
	})

	Context("PublishedPort", func() {
		It("should prefer the IPv4 binding", func() {
			fake.On(runner.Result{Stdout: []byte(inspectOutput)}, "inspect")
			info, err := e.Inspect(ctx, "abc123")
			Expect(err).NotTo(HaveOccurred())

			port, ok := engine.PublishedPort(info, 5432)

			Expect(ok).To(BeTrue())
			Expect(port).To(Equal(49153))
		})

		It("should report unpublished ports", func() {
			fake.On(runner.Result{Stdout: []byte(inspectOutput)}, "inspect")
			info, err := e.Inspect(ctx, "abc123")
			Expect(err).NotTo(HaveOccurred())

			_, ok := engine.PublishedPort(info, 9000)
			Expect(ok).To(BeFalse())

			_, ok = engine.PublishedPort(info, 80)
			Expect(ok).To(BeFalse())

			_, ok = engine.PublishedPort(nil, 80)
			Expect(ok).To(BeFalse())
		})
	})

	Context("state changes", func() {
		DescribeTable("should issue the matching docker command",
			func(call func() error, argv []string) {
				Expect(call()).To(Succeed())
				Expect(fake.Calls()[0].Argv).To(Equal(argv))
			},
			Entry("start", func() error { return e.Start(ctx, "c1") }, []string{"docker", "start", "c1"}),
			Entry("stop", func() error { return e.Stop(ctx, "c1", 10*time.Second) }, []string{"docker", "stop", "--time", "10", "c1"}),
			Entry("restart", func() error { return e.Restart(ctx, "c1") }, []string{"docker", "restart", "c1"}),
			Entry("kill", func() error { return e.Kill(ctx, "c1", "") }, []string{"docker", "kill", "c1"}),
			Entry("kill with signal", func() error { return e.Kill(ctx, "c1", "SIGHUP") }, []string{"docker", "kill", "--signal", "SIGHUP", "c1"}),
			Entry("pause", func() error { return e.Pause(ctx, "c1") }, []string{"docker", "pause", "c1"}),
			Entry("unpause", func() error { return e.Unpause(ctx, "c1") }, []string{"docker", "unpause", "c1"}),
		)

		It("should fail on a non-zero exit", func() {
			fake.On(runner.Result{ExitCode: 1}, "pause")

			Expect(srvErrors.IsCommandFailedError(e.Pause(ctx, "c1"))).To(BeTrue())
		})
	})

	Context("pass-through commands", func() {
		It("should exec unprivileged by default", func() {
			fake.On(runner.Result{Stdout: []byte("ok\n")}, "exec")

			result, err := e.Exec(ctx, "c1", []string{"echo", "ok"}, false)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.Stdout).To(Equal([]byte("ok\n")))
			Expect(fake.Calls()[0].Argv).To(Equal([]string{"docker", "exec", "c1", "echo", "ok"}))
		})

		It("should exec privileged on request", func() {
			_, err := e.Exec(ctx, "c1", []string{"id"}, true)

			Expect(err).NotTo(HaveOccurred())
			Expect(fake.Calls()[0].Argv).To(Equal([]string{"docker", "exec", "--privileged", "c1", "id"}))
		})

		It("should pass a non-zero exec exit through without an error", func() {
			fake.On(runner.Result{ExitCode: 2}, "exec")

			result, err := e.Exec(ctx, "c1", []string{"false"}, false)

			Expect(err).NotTo(HaveOccurred())
			Expect(result.ExitCode).To(Equal(2))
		})

		It("should copy in and out of a container", func() {
			_, err := e.CopyTo(ctx, "c1", "/local/a", "/remote/a")
			Expect(err).NotTo(HaveOccurred())
			_, err = e.CopyFrom(ctx, "c1", "/remote/b", "/local/b")
			Expect(err).NotTo(HaveOccurred())

			calls := fake.Calls()
			Expect(calls[0].Argv).To(Equal([]string{"docker", "cp", "/local/a", "c1:/remote/a"}))
			Expect(calls[1].Argv).To(Equal([]string{"docker", "cp", "c1:/remote/b", "/local/b"}))
		})

		It("should fetch logs since a point in time", func() {
			_, err := e.Logs(ctx, "c1", "2024-01-01T00:00:00")
			Expect(err).NotTo(HaveOccurred())
			_, err = e.Logs(ctx, "c1", "")
			Expect(err).NotTo(HaveOccurred())

			calls := fake.Calls()
			Expect(calls[0].Argv).To(Equal([]string{"docker", "logs", "c1", "--since=2024-01-01T00:00:00"}))
			Expect(calls[1].Argv).To(Equal([]string{"docker", "logs", "c1"}))
		})
	})
})
