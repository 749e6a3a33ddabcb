package scheduler_test

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kubev2v/asset-launcher/pkg/scheduler"
)

var _ = Describe("Scheduler", func() {
	var s *scheduler.Scheduler[string]

	AfterEach(func() {
		if s != nil {
			s.Close()
		}
	})

	Describe("Submit", func() {
		It("should run the job and report its result under its name", func() {
			s = scheduler.New[string](1)

			future := s.Submit("auth_base", func(ctx context.Context) (string, error) {
				return "up", nil
			})

			var result scheduler.Result[string]
			Eventually(future.C(), 2*time.Second).Should(Receive(&result))
			Expect(result.Name).To(Equal("auth_base"))
			Expect(result.Data).To(Equal("up"))
			Expect(result.Err).NotTo(HaveOccurred())
		})

		It("should report a panicking job as an error and keep going", func() {
			s = scheduler.New[string](1)

			bad := s.Submit("bad", func(ctx context.Context) (string, error) {
				panic("boom")
			})
			good := s.Submit("good", func(ctx context.Context) (string, error) {
				return "ok", nil
			})

			results := scheduler.AwaitAll(context.Background(), bad, good)
			Expect(results[0].Err).To(MatchError(ContainSubstring("boom")))
			Expect(results[1].Data).To(Equal("ok"))
		})
	})

	Describe("concurrency", func() {
		It("should never run more jobs than workers", func() {
			s = scheduler.New[string](2)

			var running, peak atomic.Int32
			job := func(ctx context.Context) (string, error) {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				running.Add(-1)
				return "", nil
			}

			var futures []*scheduler.Future[string]
			for range 6 {
				futures = append(futures, s.Submit("asset", job))
			}
			results := scheduler.AwaitAll(context.Background(), futures...)

			Expect(results).To(HaveLen(6))
			Expect(peak.Load()).To(BeNumerically("<=", 2))
		})

		It("should keep submission order in AwaitAll", func() {
			s = scheduler.New[string](3)

			slow := s.Submit("slow", func(ctx context.Context) (string, error) {
				time.Sleep(50 * time.Millisecond)
				return "slow", nil
			})
			fast := s.Submit("fast", func(ctx context.Context) (string, error) {
				return "fast", errors.New("failed")
			})

			results := scheduler.AwaitAll(context.Background(), slow, fast)
			Expect(results[0].Name).To(Equal("slow"))
			Expect(results[1].Name).To(Equal("fast"))
			Expect(results[1].Err).To(MatchError("failed"))
		})
	})

	Describe("cancellation", func() {
		blocking := func(cancelled chan<- bool) scheduler.Job[string] {
			return func(ctx context.Context) (string, error) {
				select {
				case <-ctx.Done():
					cancelled <- true
					return "", ctx.Err()
				case <-time.After(5 * time.Second):
					return "completed", nil
				}
			}
		}

		It("should cancel a job via future.Stop()", func() {
			s = scheduler.New[string](1)
			cancelled := make(chan bool, 1)

			future := s.Submit("asset", blocking(cancelled))
			time.Sleep(50 * time.Millisecond)
			future.Stop()

			Eventually(cancelled, 2*time.Second).Should(Receive(BeTrue()))
		})

		It("should cancel a job whose caller gives up", func() {
			s = scheduler.New[string](1)
			cancelled := make(chan bool, 1)
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			result := s.Submit("asset", blocking(cancelled)).Await(ctx)

			Expect(result.Err).To(MatchError(context.DeadlineExceeded))
			Eventually(cancelled, 2*time.Second).Should(Receive(BeTrue()))
		})

		It("should cancel running and pending jobs on Close", func() {
			s = scheduler.New[string](1)
			cancelled := make(chan bool, 1)

			s.Submit("running", blocking(cancelled))
			pending := s.Submit("pending", func(ctx context.Context) (string, error) {
				return "never", nil
			})
			time.Sleep(50 * time.Millisecond)
			s.Close()
			s = nil

			Eventually(cancelled, 2*time.Second).Should(Receive(BeTrue()))
			var result scheduler.Result[string]
			Eventually(pending.C(), time.Second).Should(Receive(&result))
			Expect(result.Err).To(MatchError(context.Canceled))
		})
	})

	Describe("Close", func() {
		It("should answer canceled to jobs submitted after Close", func() {
			s = scheduler.New[string](1)
			s.Close()

			future := s.Submit("late", func(ctx context.Context) (string, error) {
				return "done", nil
			})

			var result scheduler.Result[string]
			Eventually(future.C(), time.Second).Should(Receive(&result))
			Expect(result.Err).To(MatchError(context.Canceled))
		})

		It("should wait for in-flight jobs", func() {
			s = scheduler.New[string](1)

			started := make(chan struct{})
			unblock := make(chan struct{})
			s.Submit("asset", func(ctx context.Context) (string, error) {
				close(started)
				<-unblock
				return "done", nil
			})
			Eventually(started, time.Second).Should(BeClosed())

			closeDone := make(chan struct{})
			go func() {
				s.Close()
				close(closeDone)
			}()

			Consistently(closeDone, 200*time.Millisecond).ShouldNot(BeClosed())
			close(unblock)
			Eventually(closeDone, time.Second).Should(BeClosed())
			s = nil
		})

		It("should not leak goroutines", func() {
			base := runtime.NumGoroutine()
			s = scheduler.New[string](4)

			for range 200 {
				s.Submit("asset", func(ctx context.Context) (string, error) {
					<-ctx.Done()
					return "", ctx.Err()
				})
			}

			time.Sleep(50 * time.Millisecond)
			s.Close()
			s = nil

			Eventually(runtime.NumGoroutine, 5*time.Second, 100*time.Millisecond).Should(BeNumerically("<=", base+10))
		})
	})
})
