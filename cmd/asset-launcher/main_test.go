package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/kubev2v/asset-launcher/internal/config"
	"github.com/kubev2v/asset-launcher/pkg/launcher"
	"github.com/kubev2v/asset-launcher/pkg/runner"
	"github.com/kubev2v/asset-launcher/test"
)

var _ = Describe("asset-launcher", func() {
	BeforeEach(func() {
		color.NoColor = true
	})

	Context("asset resolution", func() {
		It("should build a single asset from flags", func() {
			opts := &rootOptions{service: "auth", asset: "base", assetsRoot: "/assets"}

			assets, err := opts.assets(nil)

			Expect(err).NotTo(HaveOccurred())
			Expect(assets).To(Equal([]launcher.Asset{{Service: "auth", Name: "base", Root: "/assets"}}))
		})

		It("should refuse asset names combined with flags", func() {
			opts := &rootOptions{service: "auth", asset: "base"}
			_, err := opts.assets([]string{"db"})
			Expect(err).To(HaveOccurred())
		})

		It("should read the assets file", func() {
			dir := GinkgoT().TempDir()
			path := filepath.Join(dir, "assets.yaml")
			Expect(os.WriteFile(path, []byte("service: auth\nassets_root: assets\nassets:\n  base: {}\n  db: {}\n"), 0o644)).To(Succeed())
			opts := &rootOptions{configFile: path}

			a, rest, err := opts.singleAsset([]string{"db", "5432"})

			Expect(err).NotTo(HaveOccurred())
			Expect(a.Name).To(Equal("db"))
			Expect(a.Root).To(Equal(filepath.Join(dir, "assets")))
			Expect(rest).To(Equal([]string{"5432"}))
		})

		It("should explain a missing assets file", func() {
			root := newRootCommand(newRootOptions())
			root.SetArgs([]string{"up", "--config", filepath.Join(GinkgoT().TempDir(), "none.yaml")})
			root.SetOut(&bytes.Buffer{})

			err := root.ExecuteContext(context.Background())

			Expect(err).To(MatchError(ContainSubstring("no assets file")))
		})

		It("should require a command for exec", func() {
			root := newRootCommand(newRootOptions())
			root.SetArgs([]string{"exec", "--service", "auth", "--asset", "base", "--assets-root", "/assets"})

			Expect(root.ExecuteContext(context.Background())).To(MatchError(ContainSubstring("command required")))
		})
	})

	Context("execute", func() {
		It("should print the error of a failed command", func() {
			stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
			missing := filepath.Join(GinkgoT().TempDir(), "none.yaml")

			err := execute(context.Background(), newRootOptions(),
				[]string{"port", "--config", missing, "db", "5432"}, stdout, stderr)

			Expect(err).To(HaveOccurred())
			Expect(stderr.String()).To(HavePrefix("Error: no assets file"))
			Expect(stdout.String()).To(BeEmpty())
		})

		It("should print usage errors", func() {
			stderr := &bytes.Buffer{}

			err := execute(context.Background(), newRootOptions(), []string{"port"}, &bytes.Buffer{}, stderr)

			Expect(err).To(HaveOccurred())
			Expect(stderr.String()).To(ContainSubstring("asset name required"))
		})

		It("should close the helpers when the command fails", func() {
			opts := newRootOptions()
			stderr := &bytes.Buffer{}

			err := execute(context.Background(), opts,
				[]string{"port", "--service", "auth", "--asset", "base", "--assets-root", "/assets", "abc"},
				&bytes.Buffer{}, stderr)

			Expect(err).To(MatchError(ContainSubstring(`invalid port "abc"`)))
			Expect(stderr.String()).To(ContainSubstring(`invalid port "abc"`))
			Expect(opts.created).To(BeEmpty())
		})
	})

	Context("forEach", func() {
		It("should report every asset and join the failures", func() {
			fake := test.NewFakeRunner()
			fake.On(runner.Result{ExitCode: 1}, "--project-name", "auth_broken")
			env := config.NewEnvironment()
			env.NoPull = true

			var helpers []*launcher.Helper
			for _, name := range []string{"base", "broken"} {
				h, err := launcher.New(launcher.Asset{Service: "auth", Name: name, Root: "/assets"},
					launcher.WithRunner(fake),
					launcher.WithEngine(test.NewFakeEngine()),
					launcher.WithEnvironment(env),
					launcher.WithLogDir(launcher.NewLogDir(GinkgoT().TempDir())),
				)
				Expect(err).NotTo(HaveOccurred())
				helpers = append(helpers, h)
			}

			out := &bytes.Buffer{}
			cmd := &cobra.Command{}
			cmd.SetOut(out)
			cmd.SetContext(context.Background())

			err := forEach(cmd, 2, helpers, "up", func(ctx context.Context, h *launcher.Helper) error {
				return h.Launch(ctx)
			})

			Expect(err).To(MatchError(ContainSubstring("up auth_broken")))
			Expect(out.String()).To(ContainSubstring("✓ auth_base up"))
			Expect(out.String()).To(ContainSubstring("✗ auth_broken"))
			Expect(helpers[0].State()).To(Equal(launcher.StateUp))
		})
	})
})
